package site

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
)

// Artifact kinds, used for metrics and logs.
const (
	KindListing    = "listing"
	KindTagListing = "tag_listing"
	KindTagIndex   = "tag_index"
	KindPost       = "post"
	KindSearch     = "search"
	KindFeed       = "feed"
	KindManifest   = "manifest"
)

// Fixed artifact paths relative to the output root.
const (
	SearchFile   = "search.json"
	FeedFile     = "feed.xml"
	TagIndexFile = "tags/index.json"
	pageFile     = "index.json"
)

// Artifact is one generated file.
type Artifact struct {
	Path string // relative to the output root, forward slashes
	Kind string
	Data []byte
}

// ListingURL is the site-relative URL of listing page n.
func ListingURL(n int) string {
	return "page/" + strconv.Itoa(n) + "/"
}

// TagURL is the site-relative URL of page n of a tag listing.
func TagURL(tag string, n int) string {
	seg := url.PathEscape(tag)
	if seg == "." || seg == ".." {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	return "tags/" + seg + "/page/" + strconv.Itoa(n) + "/"
}

// filePath maps a site-relative URL to the artifact path on disk. Segments
// are unescaped unless that would introduce a separator or a dot segment.
func filePath(u string) string {
	segs := strings.Split(u, "/")
	for i, s := range segs {
		dec, err := url.PathUnescape(s)
		if err != nil || strings.Contains(dec, "/") || dec == "." || dec == ".." {
			continue
		}
		segs[i] = dec
	}
	return strings.Join(segs, "/")
}

// docSummary is a document as it appears in listings.
type docSummary struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	URL     string   `json:"url"`
}

type listingPage struct {
	Tag        string       `json:"tag,omitempty"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	TotalItems int          `json:"total_items"`
	Prev       string       `json:"prev,omitempty"`
	Next       string       `json:"next,omitempty"`
	Items      []docSummary `json:"items"`
}

type tagEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	URL   string `json:"url"`
}

type tagIndexPayload struct {
	Tags []tagEntry `json:"tags"`
}

type postPage struct {
	docSummary
	HTML  string `json:"html"`
	Newer string `json:"newer,omitempty"`
	Older string `json:"older,omitempty"`
}

func summarize(d *content.Document) docSummary {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return docSummary{
		Slug:    d.Slug,
		Title:   d.Title,
		Date:    d.DateString(),
		Summary: d.Summary,
		Tags:    tags,
		URL:     feed.PostPath(d.Slug),
	}
}

// listingPayload renders a page; urlFor maps a page number to its URL.
func listingPayload(tag string, p DocPage, urlFor func(int) string) listingPage {
	out := listingPage{
		Tag:        tag,
		Page:       p.Number,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
		Items:      make([]docSummary, 0, len(p.Items)),
	}
	if p.HasPrev() {
		out.Prev = urlFor(p.Number - 1)
	}
	if p.HasNext() {
		out.Next = urlFor(p.Number + 1)
	}
	for _, d := range p.Items {
		out.Items = append(out.Items, summarize(d))
	}
	return out
}

// encodeJSON renders v as indented JSON without HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
