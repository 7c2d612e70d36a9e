package search

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"within budget", "short text", 20, "short text"},
		{"exact budget", "exactly ten", 11, "exactly ten"},
		{"cut before word", "the quick brown fox", 12, "the quick"},
		{"limit lands on space", "the quick brown fox", 9, "the quick"},
		{"limit just before space", "the quick brown fox", 10, "the quick"},
		{"first word too long", "supercalifragilistic word", 5, ""},
		{"zero limit", "anything", 0, ""},
		{"multibyte runes", "café crème brûlée", 10, "café crème"},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.text, tt.limit))
		})
	}
}

func TestExcerpt_NeverSplitsWords(t *testing.T) {
	text := "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore"
	words := map[string]bool{}
	for _, w := range strings.Fields(text) {
		words[w] = true
	}

	for limit := 1; limit < utf8.RuneCountInString(text); limit++ {
		got := Excerpt(text, limit)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), limit)
		assert.True(t, strings.HasPrefix(text, got))
		if got == "" {
			continue
		}
		rest := text[len(got):]
		r, _ := utf8.DecodeRuneInString(rest)
		assert.True(t, unicode.IsSpace(r), "limit %d cut inside a word: %q", limit, got)
		for _, w := range strings.Fields(got) {
			assert.True(t, words[w])
		}
	}
}

func sample(t *testing.T) *corpus.Corpus {
	t.Helper()
	raw := map[string]string{
		"one.md":   "---\ntitle: One\ndate: 2024-02-01\ntags: [Go, Web]\n---\nThe first   post\nbody text.\n",
		"two.md":   "---\ntitle: Two\ndate: 2024-02-03\n---\nSecond.\n",
		"draft.md": "---\ntitle: Draft\ndate: 2024-03-01\ndraft: true\n---\nHidden.\n",
	}
	var docs []*content.Document
	for _, src := range []string{"draft.md", "one.md", "two.md"} {
		d, err := content.Parse(src, []byte(raw[src]))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	c, err := corpus.Assemble(docs, corpus.Options{})
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	records := Build(sample(t), Options{ExcerptLength: 14})
	require.Len(t, records, 2)

	assert.Equal(t, Record{Slug: "two", Title: "Two", Tags: []string{}, Excerpt: "Second.", Date: "2024-02-03"}, records[0])
	assert.Equal(t, Record{Slug: "one", Title: "One", Tags: []string{"go", "web"}, Excerpt: "The first post", Date: "2024-02-01"}, records[1])
}

func TestBuild_UsesTextExtractor(t *testing.T) {
	records := Build(sample(t), Options{
		ExcerptLength: 100,
		Text:          func(body []byte) string { return strings.ToUpper(strings.TrimSpace(string(body))) },
	})
	assert.Equal(t, "SECOND.", records[0].Excerpt)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(sample(t), Options{ExcerptLength: 50})))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "two", decoded[0]["slug"])
	assert.Equal(t, []any{}, decoded[0]["tags"])

	var again bytes.Buffer
	require.NoError(t, Encode(&again, Build(sample(t), Options{ExcerptLength: 50})))
	assert.Equal(t, buf.String(), again.String())
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
