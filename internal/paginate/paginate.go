// Package paginate partitions ordered lists into fixed-size pages.
//
// Pages never reorder, drop or duplicate items: concatenating Items across
// the pages returned by Plan reproduces the input exactly. What an empty
// input produces is decided by the caller through an EmptyPolicy.
package paginate

import (
	"fmt"
	"strconv"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// EmptyPolicy selects what Plan returns for an empty input.
type EmptyPolicy string

const (
	// EmptySinglePage yields one page with no items and TotalPages = 1.
	EmptySinglePage EmptyPolicy = "single_page"
	// EmptyNoPages yields no pages at all.
	EmptyNoPages EmptyPolicy = "none"
)

// ParseEmptyPolicy validates a configured policy name.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch p := EmptyPolicy(s); p {
	case EmptySinglePage, EmptyNoPages:
		return p, nil
	default:
		return "", ferrors.ConfigError(fmt.Sprintf("unknown empty listing policy %q (want %q or %q)", s, EmptySinglePage, EmptyNoPages)).
			WithField("build.empty_listing").
			Build()
	}
}

// Page is one slice of an ordered list with its position metadata.
type Page[T any] struct {
	Number     int // 1-indexed
	Items      []T
	TotalPages int
	TotalItems int
	Offset     int // index of Items[0] in the source list
}

// HasPrev reports whether a page precedes this one.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// First and Last return the 1-indexed item range covered by the page.
// Both are zero for an empty page.
func (p Page[T]) First() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Offset + 1
}

func (p Page[T]) Last() int {
	return p.Offset + len(p.Items)
}

// Plan partitions items into consecutive pages of size, the last one
// possibly shorter. size must be positive.
func Plan[T any](items []T, size int, policy EmptyPolicy) ([]Page[T], error) {
	if size <= 0 {
		return nil, ferrors.ConfigError("page size must be positive").
			WithField("build.page_size").
			WithContext("value", size).
			Build()
	}
	if len(items) == 0 {
		switch policy {
		case EmptySinglePage:
			return []Page[T]{{Number: 1, Items: []T{}, TotalPages: 1}}, nil
		case EmptyNoPages:
			return []Page[T]{}, nil
		default:
			_, err := ParseEmptyPolicy(string(policy))
			return nil, err
		}
	}

	total := (len(items) + size - 1) / size
	pages := make([]Page[T], 0, total)
	for i := range total {
		start := i * size
		end := min(start+size, len(items))
		pages = append(pages, Page[T]{
			Number:     i + 1,
			Items:      items[start:end:end],
			TotalPages: total,
			TotalItems: len(items),
			Offset:     start,
		})
	}
	return pages, nil
}

// Pager gives random access to the pages of one list.
type Pager[T any] struct {
	pages []Page[T]
}

// NewPager plans items and wraps the result.
func NewPager[T any](items []T, size int, policy EmptyPolicy) (*Pager[T], error) {
	pages, err := Plan(items, size, policy)
	if err != nil {
		return nil, err
	}
	return &Pager[T]{pages: pages}, nil
}

// TotalPages returns the number of pages.
func (p *Pager[T]) TotalPages() int { return len(p.pages) }

// Pages returns every page in order.
func (p *Pager[T]) Pages() []Page[T] { return p.pages }

// Page returns page n. Numbers outside [1, TotalPages] yield a
// PageRangeError rather than a clamped page.
func (p *Pager[T]) Page(n int) (Page[T], error) {
	if n < 1 || n > len(p.pages) {
		return Page[T]{}, ferrors.PageRangeError(fmt.Sprintf("page %d out of range [1, %d]", n, len(p.pages))).
			WithContext(ferrors.ContextPage, strconv.Itoa(n)).
			WithContext("total_pages", len(p.pages)).
			Build()
	}
	return p.pages[n-1], nil
}
