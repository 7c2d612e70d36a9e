// Package content loads authored documents: it splits the YAML header from
// the body, validates the header against the document schema and produces
// typed Document values with canonical slugs and tags.
package content

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the canonical calendar-date rendering used in artifacts.
const DateLayout = "2006-01-02"

// Document is one authored unit of content. Values are created by Parse and
// never mutated afterwards.
type Document struct {
	Slug        string    // unique identifier, derived from Source unless overridden
	Source      string    // path relative to the content root, forward slashes
	Title       string    // non-empty
	Date        time.Time // calendar date at UTC midnight
	Tags        []string  // normalized, de-duplicated, sorted
	Draft       bool
	Summary     string
	Body        []byte // opaque to the pipeline; handed to the renderer
	Fingerprint string // content fingerprint of header and body
}

// HasTag reports whether the document carries tag (normalized before comparison).
func (d *Document) HasTag(tag string) bool {
	_, found := slices.BinarySearch(d.Tags, NormalizeTag(tag))
	return found
}

// DateString renders the document date as YYYY-MM-DD.
func (d *Document) DateString() string {
	return d.Date.Format(DateLayout)
}

// NormalizeTag returns the canonical form of a tag: NFC normalized, Unicode
// case folded, surrounding whitespace trimmed and inner whitespace runs
// collapsed to one space.
func NormalizeTag(tag string) string {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(strings.Join(fields, " ")))
}
