// Package search projects the corpus into the payload consumed by the
// client-side search widget.
package search

import (
	"encoding/json"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

// Record is the searchable projection of one document.
type Record struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Excerpt string   `json:"excerpt"`
	Date    string   `json:"date"`
}

// Options controls record projection.
type Options struct {
	// ExcerptLength is the excerpt budget in runes.
	ExcerptLength int
	// Text extracts plain text from a body. Nil treats the body as text.
	Text func(body []byte) string
}

// Build returns one record per corpus document, in corpus order.
func Build(c *corpus.Corpus, opts Options) []Record {
	records := make([]Record, 0, c.Len())
	for i := range c.Len() {
		records = append(records, project(c.At(i), opts))
	}
	return records
}

func project(d *content.Document, opts Options) Record {
	var body string
	if opts.Text != nil {
		body = opts.Text(d.Body)
	} else {
		body = strings.Join(strings.Fields(string(d.Body)), " ")
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return Record{
		Slug:    d.Slug,
		Title:   d.Title,
		Tags:    tags,
		Excerpt: Excerpt(body, opts.ExcerptLength),
		Date:    d.DateString(),
	}
}

// Excerpt truncates text to at most limit runes without splitting a word.
// Text within the budget is returned unchanged. Otherwise the cut happens
// at the last word boundary at or before limit and trailing whitespace is
// dropped; if the first word alone exceeds limit the excerpt is empty.
func Excerpt(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	// byte offset just past the limit-th rune
	end, n := 0, 0
	for i := range text {
		if n == limit {
			end = i
			break
		}
		n++
	}

	next, _ := utf8.DecodeRuneInString(text[end:])
	if unicode.IsSpace(next) {
		return strings.TrimRightFunc(text[:end], unicode.IsSpace)
	}
	cut := strings.LastIndexFunc(text[:end], unicode.IsSpace)
	if cut < 0 {
		return ""
	}
	return strings.TrimRightFunc(text[:cut], unicode.IsSpace)
}

// Encode writes the records as a single JSON document.
func Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
