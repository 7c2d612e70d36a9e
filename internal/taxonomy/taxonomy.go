// Package taxonomy builds the tag index: normalized tag to the documents
// carrying it, in corpus order.
package taxonomy

import (
	"cmp"
	"slices"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
)

// Term is one tag and its documents in corpus order.
type Term struct {
	Name      string
	Documents []*content.Document
}

// Count is the number of documents carrying the tag.
func (t Term) Count() int { return len(t.Documents) }

// Index maps normalized tag names to terms. Only tags carried by at least
// one document of the corpus appear.
type Index struct {
	terms map[string]*Term
	names []string
}

// Build walks the corpus once, appending each document to every tag it
// carries. Tags on the documents are already normalized by the loader.
func Build(c *corpus.Corpus) *Index {
	ix := &Index{terms: make(map[string]*Term)}
	for i := range c.Len() {
		doc := c.At(i)
		for _, tag := range doc.Tags {
			term, ok := ix.terms[tag]
			if !ok {
				term = &Term{Name: tag}
				ix.terms[tag] = term
				ix.names = append(ix.names, tag)
			}
			term.Documents = append(term.Documents, doc)
		}
	}
	slices.Sort(ix.names)
	return ix
}

// Len returns the number of distinct tags.
func (ix *Index) Len() int { return len(ix.names) }

// Lookup returns the term for tag, normalizing the query first.
func (ix *Index) Lookup(tag string) (Term, bool) {
	term, ok := ix.terms[content.NormalizeTag(tag)]
	if !ok {
		return Term{}, false
	}
	return ix.copyOf(term), true
}

// Terms returns every term ordered by name.
func (ix *Index) Terms() []Term {
	out := make([]Term, 0, len(ix.names))
	for _, name := range ix.names {
		out = append(out, ix.copyOf(ix.terms[name]))
	}
	return out
}

// ByCount returns every term ordered by count descending, then name.
func (ix *Index) ByCount() []Term {
	out := ix.Terms()
	slices.SortStableFunc(out, func(a, b Term) int {
		return cmp.Compare(b.Count(), a.Count())
	})
	return out
}

// Counts returns tag name to document count.
func (ix *Index) Counts() map[string]int {
	out := make(map[string]int, len(ix.names))
	for name, term := range ix.terms {
		out[name] = term.Count()
	}
	return out
}

func (ix *Index) copyOf(t *Term) Term {
	return Term{Name: t.Name, Documents: slices.Clone(t.Documents)}
}
