// Package corpus assembles loaded documents into the canonical, immutable
// chronological sequence every generated view derives from.
package corpus

import (
	"errors"
	"slices"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Options controls corpus assembly.
type Options struct {
	// IncludeDrafts keeps draft documents (preview mode).
	IncludeDrafts bool
}

// Corpus is the ordered set of published documents for one build: date
// descending, slug ascending for equal dates. It is never modified after
// Assemble returns.
type Corpus struct {
	docs     []*content.Document
	excluded int
}

// Assemble validates slug uniqueness across every loaded document (drafts
// included), drops drafts unless opts.IncludeDrafts, and sorts the rest.
func Assemble(docs []*content.Document, opts Options) (*Corpus, error) {
	if err := checkSlugs(docs); err != nil {
		return nil, err
	}

	kept := make([]*content.Document, 0, len(docs))
	excluded := 0
	for _, d := range docs {
		if d.Draft && !opts.IncludeDrafts {
			excluded++
			continue
		}
		kept = append(kept, d)
	}
	slices.SortFunc(kept, Compare)

	return &Corpus{docs: kept, excluded: excluded}, nil
}

// Compare is the canonical ordering: newer dates first, then slug ascending.
// Slugs are unique, so no two documents of a corpus compare equal.
func Compare(a, b *content.Document) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	return strings.Compare(a.Slug, b.Slug)
}

func checkSlugs(docs []*content.Document) error {
	owners := make(map[string]string, len(docs))
	var errs []error
	for _, d := range docs {
		if first, dup := owners[d.Slug]; dup {
			errs = append(errs, ferrors.DuplicateSlugError("two documents resolve to the same slug").
				WithContext(ferrors.ContextSlug, d.Slug).
				WithSource(d.Source).
				WithContext("conflicts_with", first).
				Build())
			continue
		}
		owners[d.Slug] = d.Source
	}
	return errors.Join(errs...)
}

// Documents returns the ordered documents. The slice is a copy; the
// documents themselves are shared and must not be modified.
func (c *Corpus) Documents() []*content.Document {
	return slices.Clone(c.docs)
}

// Len returns the number of published documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Drafts returns how many drafts were left out.
func (c *Corpus) Drafts() int { return c.excluded }

// At returns the i-th document in canonical order.
func (c *Corpus) At(i int) *content.Document { return c.docs[i] }

// Filter returns the documents satisfying keep, in canonical order. Views
// derive their ordering through Filter rather than sorting on their own.
func (c *Corpus) Filter(keep func(*content.Document) bool) []*content.Document {
	out := make([]*content.Document, 0)
	for _, d := range c.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Head returns at most n documents from the front of the corpus.
func (c *Corpus) Head(n int) []*content.Document {
	if n < 0 {
		n = 0
	}
	return slices.Clone(c.docs[:min(n, len(c.docs))])
}
