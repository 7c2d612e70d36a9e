package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/paginate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
site:
  title: Field Notes
  base_url: https://blog.example.com/
  description: Notes
  author: Ada
  language: de
content:
  directory: ./posts
output:
  directory: ./public
  clean: false
build:
  page_size: 5
  feed_limit: 0
  excerpt_length: 120
  include_drafts: true
  empty_listing: NONE
  workers: 3
state:
  database: ./state/history.db
metrics:
  textfile: ./metrics/blog.prom
logging:
  level: Debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Field Notes", cfg.Site.Title)
	assert.Equal(t, "./posts", cfg.Content.Directory)
	assert.False(t, cfg.Output.Clean)
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, "./state/history.db", cfg.State.Database)
	assert.Equal(t, "./metrics/blog.prom", cfg.Metrics.Textfile)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)

	assert.Equal(t, CoreOptions{
		PageSize:      5,
		FeedLimit:     0,
		ExcerptLength: 120,
		IncludeDrafts: true,
		EmptyListing:  paginate.EmptyNoPages,
	}, cfg.BuildOptions())
}

func TestParse_AbsentKeysKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  title: Only Title\n"))
	require.NoError(t, err)

	def := Defaults()
	assert.Equal(t, "Only Title", cfg.Site.Title)
	assert.Equal(t, def.Site.BaseURL, cfg.Site.BaseURL)
	assert.Equal(t, def.Build, cfg.Build)
	assert.True(t, cfg.Output.Clean)
	assert.Equal(t, paginate.EmptySinglePage, cfg.BuildOptions().EmptyListing)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte("# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("BLOG_TITLE", "From Env")
	cfg, err := Parse([]byte("site:\n  title: ${BLOG_TITLE}\n"))
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Site.Title)
}

func TestParse_InvalidValuesAreNeverDefaulted(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"zero page size", "build:\n  page_size: 0\n", "build.page_size"},
		{"negative page size", "build:\n  page_size: -4\n", "build.page_size"},
		{"negative feed limit", "build:\n  feed_limit: -1\n", "build.feed_limit"},
		{"zero excerpt", "build:\n  excerpt_length: 0\n", "build.excerpt_length"},
		{"negative workers", "build:\n  workers: -2\n", "build.workers"},
		{"unknown empty policy", "build:\n  empty_listing: sometimes\n", "build.empty_listing"},
		{"empty title", "site:\n  title: \"\"\n", "site.title"},
		{"relative base url", "site:\n  base_url: /blog/\n", "site.base_url"},
		{"empty content dir", "content:\n  directory: \"\"\n", "content.directory"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
		{"bad log format", "logging:\n  format: xml\n", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			field, _ := ce.Context().GetString(ferrors.ContextField)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestParse_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte("build:\n  page_size: 0\n  excerpt_length: -1\n"))
	require.Error(t, err)
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 2)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("build:\n  pagesize: 3\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParse_RejectsWrongTypes(t *testing.T) {
	_, err := Parse([]byte("build:\n  page_size: ten\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_AttachesSourceToEveryProblem(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "build:\n  page_size: 0\n  feed_limit: -1\n")
	_, err := Load(path)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	for _, e := range joined.Unwrap() {
		ce, ok := ferrors.AsClassified(e)
		require.True(t, ok)
		src, _ := ce.Context().GetString(ferrors.ContextSource)
		assert.Equal(t, path, src)
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLOG_ENV_TITLE=from-file\nBLOG_ENV_AUTHOR=file-author\n"), 0o600))
	t.Setenv("BLOG_ENV_AUTHOR", "process-author")
	t.Setenv("BLOG_ENV_TITLE", "") // restored after the test
	require.NoError(t, os.Unsetenv("BLOG_ENV_TITLE"))

	path := writeConfig(t, "site:\n  title: ${BLOG_ENV_TITLE}\n  author: ${BLOG_ENV_AUTHOR}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Site.Title)
	assert.Equal(t, "process-author", cfg.Site.Author)
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "blogbuilder.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Field Notes", cfg.Site.Title)
	assert.Equal(t, 10, cfg.Build.PageSize)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.NoError(t, Init(path, true))
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelWarn, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	verbose := LoggingConfig{Level: LogLevelError, Format: LogFormatText}.NewLogger(&buf, true)
	verbose.Debug("debugging")
	assert.Contains(t, buf.String(), "msg=debugging")
}
