package render

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldmark_Render(t *testing.T) {
	g := NewGoldmark()
	out, err := g.Render([]byte("# Hello World\n\nSome *text* and ~~old~~.\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, html, "<em>text</em>")
	assert.Contains(t, html, "<del>old</del>")
}

func TestGoldmark_RenderIsDeterministic(t *testing.T) {
	g := NewGoldmark()
	body := []byte("## Intro\n\n## Intro\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	first, err := g.Render(body)
	require.NoError(t, err)
	second, err := g.Render(body)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `id="intro-1"`)
}

func TestGoldmark_PlainText(t *testing.T) {
	g := NewGoldmark()
	body := []byte(`# Title

First paragraph with **bold**,
a [link](https://example.com) and ` + "`code`" + `.

` + "```go\nfunc main() {}\n```" + `

<div>raw html</div>

- one
- two
`)
	assert.Equal(t, "Title First paragraph with bold, a link and code. one two", g.PlainText(body))
}

func TestGoldmark_PlainTextDecodesAndSeparates(t *testing.T) {
	g := NewGoldmark()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"backslash escapes", `2 \* 3 \_x\_`, "2 * 3 _x_"},
		{"named and numeric entities", "Tom &amp; Jerry &copy; 2024 &#65;", "Tom & Jerry © 2024 A"},
		{"inline html", "Hello<br>world", "Hello world"},
		{"autolink", "see <https://example.com>now", "see https://example.com now"},
		{"image", "![alt](x.png)after", "alt after"},
		{"code span stays literal", "run `a \\* &amp;` now", "run a \\* &amp; now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.PlainText([]byte(tt.body)))
		})
	}
}

func TestGoldmark_PlainTextEmpty(t *testing.T) {
	g := NewGoldmark()
	assert.Empty(t, g.PlainText(nil))
	assert.Empty(t, g.PlainText([]byte("\n\n   \n")))
}

func TestGoldmark_RenderStructure(t *testing.T) {
	g := NewGoldmark()
	out, err := g.Render([]byte("## Setup\n\nSee [the site](https://example.com).\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>\n"))
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "Setup", doc.Find("h2#setup").Text())
	link := doc.Find("a")
	assert.Equal(t, "the site", link.Text())
	href, ok := link.Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", href)

	var cells []string
	doc.Find("table tbody td").Each(func(_ int, s *goquery.Selection) {
		cells = append(cells, s.Text())
	})
	assert.Equal(t, []string{"1", "2"}, cells)
	assert.Zero(t, doc.Find("script").Length(), "raw HTML must not pass through")
}
