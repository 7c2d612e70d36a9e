// Package feed projects the newest documents into syndication entries and
// writes them as an RSS 2.0 document.
package feed

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"

	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

// Entry is one feed item.
type Entry struct {
	Slug    string
	Title   string
	Date    time.Time
	Summary string
	Tags    []string
	Link    string // site-relative path of the document page
}

// Channel describes the feed envelope.
type Channel struct {
	Title       string
	Link        string // site base URL
	Description string
	Language    string
	FeedPath    string // site-relative path of the feed itself, for the self link
}

// Generate returns the first limit corpus documents as entries. A corpus
// with fewer documents yields all of them; limit <= 0 yields none.
func Generate(c *corpus.Corpus, limit int) []Entry {
	docs := c.Head(limit)
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, Entry{
			Slug:    d.Slug,
			Title:   d.Title,
			Date:    d.Date,
			Summary: d.Summary,
			Tags:    d.Tags,
			Link:    PostPath(d.Slug),
		})
	}
	return entries
}

// PostPath returns the site-relative path of a document page.
func PostPath(slug string) string {
	segs := strings.Split(slug, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "posts/" + strings.Join(segs, "/") + "/"
}

// WriteRSS writes entries wrapped in an RSS 2.0 channel. The channel's
// lastBuildDate is the newest entry date so unchanged input produces
// identical bytes.
func WriteRSS(w io.Writer, ch Channel, entries []Entry) error {
	base, err := url.Parse(ensureTrailingSlash(ch.Link))
	if err != nil {
		return fmt.Errorf("parse channel link %q: %w", ch.Link, err)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")
	rss.CreateAttr("xmlns:atom", "http://www.w3.org/2005/Atom")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(ch.Title)
	channel.CreateElement("link").SetText(base.String())
	channel.CreateElement("description").SetText(ch.Description)
	if ch.Language != "" {
		channel.CreateElement("language").SetText(ch.Language)
	}
	channel.CreateElement("generator").SetText("blogbuilder")
	if len(entries) > 0 {
		channel.CreateElement("lastBuildDate").SetText(entries[0].Date.UTC().Format(time.RFC1123Z))
	}
	if ch.FeedPath != "" {
		self := channel.CreateElement("atom:link")
		self.CreateAttr("href", resolve(base, ch.FeedPath))
		self.CreateAttr("rel", "self")
		self.CreateAttr("type", "application/rss+xml")
	}

	for _, e := range entries {
		link := resolve(base, e.Link)
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(e.Title)
		item.CreateElement("link").SetText(link)
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(link)
		item.CreateElement("pubDate").SetText(e.Date.UTC().Format(time.RFC1123Z))
		if e.Summary != "" {
			item.CreateElement("description").SetText(e.Summary)
		}
		for _, tag := range e.Tags {
			item.CreateElement("category").SetText(tag)
		}
	}

	doc.Indent(2)
	_, err = doc.WriteTo(w)
	return err
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func resolve(base *url.URL, rel string) string {
	ref, err := url.Parse(rel)
	if err != nil {
		return base.String() + rel
	}
	return base.ResolveReference(ref).String()
}
