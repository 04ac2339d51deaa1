package paging

// Keyed is implemented by list items that can be spliced by identity.
type Keyed interface {
	Key() string
}

// List is one page of items plus the pager that produced it.
type List[T Keyed] struct {
	Items []T
	Pager Pager
}

// NewList returns an empty list on page 1.
func NewList[T Keyed](size int) List[T] {
	return List[T]{Pager: New(size)}
}

// SetPage replaces the visible items with a freshly fetched page.
func (l *List[T]) SetPage(items []T) {
	l.Items = items
}

// Index returns the position of key in the current page, or -1.
func (l *List[T]) Index(key string) int {
	for i, it := range l.Items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// Splice removes the item with key from local state and decrements the
// count, without a round trip. It reports whether the item was present
// and whether the caller should refetch: the page became empty while
// the server still has items for it, or it was the last page and stepped
// back.
func (l *List[T]) Splice(key string) (removed, refetch bool) {
	idx := l.Index(key)
	if idx < 0 {
		return false, false
	}

	l.Items = append(l.Items[:idx:idx], l.Items[idx+1:]...)
	if l.Pager.Count > 0 {
		l.Pager.Count--
	}

	if len(l.Items) == 0 {
		if l.Pager.Page > 1 {
			l.Pager.Page--
			return true, true
		}
		return true, l.Pager.Count > 0
	}
	return true, false
}

// Update applies fn to the item with key in place and reports whether
// it was found.
func (l *List[T]) Update(key string, fn func(*T)) bool {
	idx := l.Index(key)
	if idx < 0 {
		return false
	}
	fn(&l.Items[idx])
	return true
}

// Remove returns items without the element matching key.
func Remove[T Keyed](items []T, key string) []T {
	out := items[:0:0]
	for _, it := range items {
		if it.Key() != key {
			out = append(out, it)
		}
	}
	return out
}
