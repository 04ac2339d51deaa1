// Package paging keeps paginated, counted, tabbed list state consistent
// with the server: a count endpoint and a page endpoint per tab, 0-based
// pages on the wire and 1-based pages on screen.
package paging

import "fmt"

// DefaultSize is the page size used when none is configured.
const DefaultSize = 6

// Pager tracks the 1-based current page against a server-reported count.
type Pager struct {
	Count int
	Size  int
	Page  int
}

// New returns a pager on page 1 with the given page size.
func New(size int) Pager {
	if size < 1 {
		size = DefaultSize
	}
	return Pager{Size: size, Page: 1}
}

// TotalPages returns ceil(Count/Size). It is zero for an empty list.
func (p Pager) TotalPages() int {
	if p.Count <= 0 || p.Size <= 0 {
		return 0
	}
	return (p.Count + p.Size - 1) / p.Size
}

// Clamp bounds page to [1, TotalPages]. An empty list still has page 1.
func (p Pager) Clamp(page int) int {
	last := p.TotalPages()
	if page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

// SetCount records a fresh count and re-clamps the current page. It
// reports whether the page moved, in which case the caller should fetch
// the new page.
func (p *Pager) SetCount(count int) bool {
	if count < 0 {
		count = 0
	}
	p.Count = count
	clamped := p.Clamp(p.Page)
	moved := clamped != p.Page
	p.Page = clamped
	return moved
}

// Goto moves to page after clamping and reports whether it changed.
func (p *Pager) Goto(page int) bool {
	clamped := p.Clamp(page)
	if clamped == p.Page {
		return false
	}
	p.Page = clamped
	return true
}

// Next advances one page if possible.
func (p *Pager) Next() bool { return p.Goto(p.Page + 1) }

// Prev steps back one page if possible.
func (p *Pager) Prev() bool { return p.Goto(p.Page - 1) }

// Reset returns to page 1 without touching the count.
func (p *Pager) Reset() { p.Page = 1 }

// HasPrev reports whether a previous page exists. The UI disables the
// control otherwise, so page 0 is never requested.
func (p Pager) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pager) HasNext() bool { return p.Page < p.TotalPages() }

// ServerPage is the 0-based index sent to the backend.
func (p Pager) ServerPage() int { return p.Page - 1 }

// Range returns the 1-based item positions shown on the current page.
// Both are zero for an empty list.
func (p Pager) Range() (from, to int) {
	if p.Count <= 0 {
		return 0, 0
	}
	from = (p.Page-1)*p.Size + 1
	to = from + p.Size - 1
	if to > p.Count {
		to = p.Count
	}
	return from, to
}

// Summary renders "7–12 of 40 · page 2/7".
func (p Pager) Summary() string {
	if p.Count <= 0 {
		return "no items"
	}
	from, to := p.Range()
	return fmt.Sprintf("%d–%d of %d · page %d/%d", from, to, p.Count, p.Page, p.TotalPages())
}
