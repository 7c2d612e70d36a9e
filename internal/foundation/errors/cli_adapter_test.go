package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "document parse", err: DocumentParseError("bad").Build(), expected: 3},
		{name: "duplicate slug", err: DuplicateSlugError("dup").Build(), expected: 4},
		{name: "page range", err: PageRangeError("range").Build(), expected: 5},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "joined uses first classified", err: stderrors.Join(DocumentParseError("a").Build(), ConfigError("b").Build()), expected: 3},
		{name: "unclassified error", err: stderrors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	err := DocumentParseError("invalid date").WithSource("posts/a.md").WithField("date").Build()
	assert.Equal(t, "Error: posts/a.md: invalid date (field date)", adapter.FormatError(err))

	joined := stderrors.Join(
		err,
		DuplicateSlugError("duplicate slug").WithContext(ContextSlug, "hello").Build(),
	)
	assert.Equal(t,
		"Error: 2 problems\n  - posts/a.md: invalid date (field date)\n  - duplicate slug (slug hello)",
		adapter.FormatError(joined))

	wrapped := ConfigError("failed to decode configuration").WithSource("blog.yaml").WithCause(stderrors.New("line 3: bad indent")).Build()
	assert.Equal(t, "Error: blog.yaml: failed to decode configuration: line 3: bad indent", adapter.FormatError(wrapped))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "Error: "+err.Error(), verbose.FormatError(err))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.HandleError(ConfigError("page_size must be > 0").WithField("build.page_size").Build())

	require.Equal(t, 7, code)
	assert.Contains(t, out.String(), "page_size must be > 0 (field build.page_size)")
	assert.Contains(t, logs.String(), "category=config")
	assert.Equal(t, 0, adapter.HandleError(nil))
}
