package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size used by listing pages.
const DefaultPerPage = 20

// Page is one page of a larger result set. Number is 1-based.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

// Window describes which slice of the full result set a page covers.
type Window struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// Paginate resolves the raw page parameter against count items.
//
// A raw value that is not an integer yields the first page. A value below 1
// or beyond the last page, including one too large for an int, yields the
// last page. An empty result set still has exactly one, empty, page.
func Paginate(raw string, count int64, perPage int) Window {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := 1
	if count > 0 {
		numPages = int((count + int64(perPage) - 1) / int64(perPage))
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case errors.Is(err, strconv.ErrRange):
		number = numPages
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
	}
}

// NewPage builds a Page from the items fetched for w.
func NewPage[T any](items []T, w Window, count int64) Page[T] {
	return Page[T]{
		Items:    items,
		Number:   w.Number,
		NumPages: w.NumPages,
		Count:    count,
		PerPage:  w.Limit,
	}
}

// Slice paginates an in-memory list.
func Slice[T any](all []T, raw string, perPage int) Page[T] {
	w := Paginate(raw, int64(len(all)), perPage)
	end := w.Offset + w.Limit
	if end > len(all) {
		end = len(all)
	}
	start := w.Offset
	if start > end {
		start = end
	}
	return NewPage(all[start:end], w, int64(len(all)))
}

func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}
func (p Page[T]) NextPageNumber() int     { return p.Number + 1 }
func (p Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// PageRange lists every page number, for rendering pager links.
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Counter hands out increasing integers starting at 0. Templates use it to
// number rows across several lists rendered on one page.
type Counter struct {
	n int
}

// Next returns the current value and advances the counter.
func (c *Counter) Next() int {
	v := c.n
	c.n++
	return v
}
