// Package render turns document bodies into HTML and plain text.
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts an opaque document body. Implementations must be safe
// for concurrent use and deterministic.
type Renderer interface {
	Render(body []byte) ([]byte, error)
	PlainText(body []byte) string
}

// Goldmark renders Markdown with the GitHub flavoured extensions and
// generated heading IDs.
type Goldmark struct {
	md goldmark.Markdown
}

var _ Renderer = (*Goldmark)(nil)

// NewGoldmark returns a Markdown renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts body to HTML. Raw HTML in the body is omitted.
func (g *Goldmark) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PlainText returns the readable text of body with markup, code blocks and
// raw HTML removed, escapes and entity references decoded, and whitespace
// runs collapsed to single spaces.
func (g *Goldmark) PlainText(body []byte) string {
	root := g.md.Parser().Parse(text.NewReader(body))

	var sb strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *gmast.AutoLink, *gmast.Image:
				sb.WriteByte(' ')
			default:
				if n.Type() == gmast.TypeBlock {
					sb.WriteByte(' ')
				}
			}
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.FencedCodeBlock, *gmast.CodeBlock, *gmast.HTMLBlock:
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML:
			sb.WriteByte(' ')
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeSpan:
			// code spans are literal: no escapes, no entities
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				switch t := c.(type) {
				case *gmast.Text:
					sb.Write(t.Segment.Value(body))
				case *gmast.String:
					sb.Write(t.Value)
				}
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			sb.Write(decode(node.Segment.Value(body)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			if node.IsCode() || node.IsRaw() {
				sb.Write(node.Value)
			} else {
				sb.Write(decode(node.Value))
			}
		case *gmast.AutoLink:
			sb.Write(node.URL(body))
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}

// decode resolves backslash escapes and character references the way the
// HTML renderer does.
func decode(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}
