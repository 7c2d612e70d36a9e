package taxonomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

func parse(t *testing.T, source, header string) *content.Document {
	t.Helper()
	d, err := content.Parse(source, []byte("---\n"+header+"\n---\nbody\n"))
	require.NoError(t, err)
	return d
}

func slugs(docs []*content.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Slug)
	}
	return out
}

func TestBuild_CaseVariantsCollapse(t *testing.T) {
	docs := []*content.Document{
		parse(t, "a.md", "title: A\ndate: 2024-01-01\ntags: [\"Go\"]"),
		parse(t, "b.md", "title: B\ndate: 2024-01-02\ntags: [\"go\"]"),
		parse(t, "c.md", "title: C\ndate: 2024-01-03\ntags: [\" GO \"]"),
	}
	c, err := corpus.Assemble(docs, corpus.Options{})
	require.NoError(t, err)

	ix := Build(c)
	require.Equal(t, 1, ix.Len())
	term, ok := ix.Lookup("GO")
	require.True(t, ok)
	assert.Equal(t, "go", term.Name)
	assert.Equal(t, 3, term.Count())
	assert.Equal(t, []string{"c", "b", "a"}, slugs(term.Documents))
}

func TestBuild_EveryTagListsExactlyItsDocuments(t *testing.T) {
	docs := []*content.Document{
		parse(t, "p1.md", "title: 1\ndate: 2024-03-01\ntags: [go, web]"),
		parse(t, "p2.md", "title: 2\ndate: 2024-03-02\ntags: [web]"),
		parse(t, "p3.md", "title: 3\ndate: 2024-03-02\ntags: [go, rust, web]"),
		parse(t, "p4.md", "title: 4\ndate: 2024-02-01"),
	}
	c, err := corpus.Assemble(docs, corpus.Options{})
	require.NoError(t, err)
	ix := Build(c)

	seen := map[string]bool{}
	for _, term := range ix.Terms() {
		assert.False(t, seen[term.Name], "tag %q listed twice", term.Name)
		seen[term.Name] = true
		assert.Equal(t, len(term.Documents), term.Count())
		assert.Positive(t, term.Count())
		for _, d := range term.Documents {
			assert.True(t, d.HasTag(term.Name))
		}
		assert.Equal(t, slugs(c.Filter(func(d *content.Document) bool { return d.HasTag(term.Name) })), slugs(term.Documents))
	}
	for _, d := range docs {
		for _, tag := range d.Tags {
			assert.True(t, seen[tag])
		}
	}

	web, ok := ix.Lookup("web")
	require.True(t, ok)
	// equal dates fall back to slug order
	assert.Equal(t, []string{"p2", "p3", "p1"}, slugs(web.Documents))
	assert.Equal(t, map[string]int{"go": 2, "rust": 1, "web": 3}, ix.Counts())

	var byCount []string
	for _, term := range ix.ByCount() {
		byCount = append(byCount, term.Name)
	}
	assert.Equal(t, []string{"web", "go", "rust"}, byCount)
}

func TestBuild_DraftOnlyTagDropped(t *testing.T) {
	docs := []*content.Document{
		parse(t, "pub.md", "title: P\ndate: 2024-01-01\ntags: [go]"),
		parse(t, "draft.md", "title: D\ndate: 2024-01-02\ntags: [go, secret]\ndraft: true"),
	}

	published, err := corpus.Assemble(docs, corpus.Options{})
	require.NoError(t, err)
	ix := Build(published)
	_, ok := ix.Lookup("secret")
	assert.False(t, ok)
	goTerm, _ := ix.Lookup("go")
	assert.Equal(t, 1, goTerm.Count())

	preview, err := corpus.Assemble(docs, corpus.Options{IncludeDrafts: true})
	require.NoError(t, err)
	ix = Build(preview)
	secret, ok := ix.Lookup("secret")
	require.True(t, ok)
	assert.Equal(t, []string{"draft"}, slugs(secret.Documents))
}

func TestBuild_EmptyCorpus(t *testing.T) {
	c, err := corpus.Assemble(nil, corpus.Options{})
	require.NoError(t, err)
	ix := Build(c)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Terms())
}

func TestLookupReturnsCopy(t *testing.T) {
	c, err := corpus.Assemble([]*content.Document{{Slug: "a", Title: "A", Date: time.Now(), Tags: []string{"x"}}}, corpus.Options{})
	require.NoError(t, err)
	ix := Build(c)
	term, _ := ix.Lookup("x")
	term.Documents[0] = nil
	again, _ := ix.Lookup("x")
	assert.NotNil(t, again.Documents[0])
}
