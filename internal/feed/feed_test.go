package feed

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

func buildCorpus(t *testing.T, n int) *corpus.Corpus {
	t.Helper()
	docs := make([]*content.Document, 0, n)
	for i := range n {
		raw := fmt.Sprintf("---\ntitle: Post %d\ndate: 2024-01-%02d\nsummary: About %d\ntags: [go]\n---\nbody\n", i, i+1, i)
		d, err := content.Parse(fmt.Sprintf("post-%d.md", i), []byte(raw))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	c, err := corpus.Assemble(docs, corpus.Options{})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	c := buildCorpus(t, 5)

	entries := Generate(c, 3)
	require.Len(t, entries, 3)
	assert.Equal(t, "post-4", entries[0].Slug)
	assert.Equal(t, "post-3", entries[1].Slug)
	assert.Equal(t, "post-2", entries[2].Slug)
	assert.Equal(t, "About 4", entries[0].Summary)
	assert.Equal(t, "posts/post-4/", entries[0].Link)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), entries[0].Date)
}

func TestGenerate_FewerThanLimit(t *testing.T) {
	assert.Len(t, Generate(buildCorpus(t, 2), 10), 2)
	assert.Empty(t, Generate(buildCorpus(t, 2), 0))
	assert.Empty(t, Generate(buildCorpus(t, 0), 5))
}

func TestPostPath(t *testing.T) {
	assert.Equal(t, "posts/guides/setup/", PostPath("guides/setup"))
	assert.Equal(t, "posts/caf%C3%A9/", PostPath("café"))
}

func TestWriteRSS_RoundTrip(t *testing.T) {
	entries := Generate(buildCorpus(t, 3), 10)
	ch := Channel{
		Title:       "Notes",
		Link:        "https://blog.example.com",
		Description: "A blog",
		Language:    "en",
		FeedPath:    "feed.xml",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRSS(&buf, ch, entries))

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "rss", parsed.FeedType)
	assert.Equal(t, "Notes", parsed.Title)
	assert.Equal(t, "A blog", parsed.Description)
	assert.Equal(t, "en", parsed.Language)
	require.NotNil(t, parsed.UpdatedParsed)
	assert.True(t, entries[0].Date.Equal(*parsed.UpdatedParsed))

	require.Len(t, parsed.Items, 3)
	first := parsed.Items[0]
	assert.Equal(t, "Post 2", first.Title)
	assert.Equal(t, "https://blog.example.com/posts/post-2/", first.Link)
	assert.Equal(t, "About 2", first.Description)
	assert.Equal(t, []string{"go"}, first.Categories)
	require.NotNil(t, first.PublishedParsed)
	assert.True(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).Equal(*first.PublishedParsed))
}

func TestWriteRSS_Deterministic(t *testing.T) {
	entries := Generate(buildCorpus(t, 4), 2)
	ch := Channel{Title: "t", Link: "https://x.test/"}

	var a, b bytes.Buffer
	require.NoError(t, WriteRSS(&a, ch, entries))
	require.NoError(t, WriteRSS(&b, ch, entries))
	assert.Equal(t, a.String(), b.String())
	assert.Contains(t, a.String(), "<lastBuildDate>Thu, 04 Jan 2024 00:00:00 +0000</lastBuildDate>")
}

func TestWriteRSS_NoEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRSS(&buf, Channel{Title: "empty", Link: "https://x.test"}, nil))
	assert.NotContains(t, buf.String(), "lastBuildDate")

	parsed, err := gofeed.NewParser().Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, parsed.Items)
}
