package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *BuildManifest {
	m := New("blogbuilder")
	m.Inputs.ConfigDigest = "cfg"
	m.AddDocument("b", "b.md", "fp-b")
	m.AddDocument("a", "a.md", "fp-a")
	m.AddArtifact("search.json", []byte("[]\n"))
	m.AddArtifact("feed.xml", []byte("<rss/>"))
	m.Sort()
	return m
}

func TestManifestSerialization(t *testing.T) {
	m := sample()
	data, err := m.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, m, restored)
	assert.Equal(t, m.Digest(), restored.Digest())
}

func TestSort(t *testing.T) {
	m := sample()
	assert.Equal(t, "a", m.Inputs.Documents[0].Slug)
	assert.Equal(t, "feed.xml", m.Outputs.Artifacts[0].Path)
	assert.Equal(t, 6, m.Outputs.Artifacts[0].Size)
	assert.Len(t, m.Outputs.Artifacts[0].Digest, 16)
}

func TestDigest(t *testing.T) {
	a, b := sample(), sample()
	assert.Equal(t, a.Digest(), b.Digest())

	b.Outputs.Artifacts[1].Digest = Sum([]byte("changed"))
	assert.NotEqual(t, a.Digest(), b.Digest())

	c := sample()
	c.Inputs.Documents[0].Fingerprint = "other"
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestSum(t *testing.T) {
	assert.Equal(t, Sum([]byte("x")), Sum([]byte("x")))
	assert.NotEqual(t, Sum([]byte("x")), Sum([]byte("y")))
	assert.Equal(t, "ef46db3751d8e999", Sum(nil))
}

func TestConfigDigest(t *testing.T) {
	type opts struct{ PageSize int }
	d1, err := ConfigDigest(opts{PageSize: 10})
	require.NoError(t, err)
	d2, err := ConfigDigest(opts{PageSize: 10})
	require.NoError(t, err)
	d3, err := ConfigDigest(opts{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}

func TestDiff(t *testing.T) {
	prev := New("blogbuilder")
	prev.AddArtifact("feed.xml", []byte("<rss/>"))
	prev.AddArtifact("page/2/index.json", []byte("{}"))
	prev.AddArtifact("search.json", []byte("old"))

	cur := sample()
	ch := cur.Diff(prev)
	assert.Empty(t, ch.Added)
	assert.Equal(t, []string{"page/2/index.json"}, ch.Removed)
	assert.Equal(t, []string{"search.json"}, ch.Modified)
	assert.False(t, ch.Empty())

	assert.True(t, cur.Diff(sample()).Empty())
	assert.Equal(t, []string{"feed.xml", "search.json"}, cur.Diff(nil).Added)
}
