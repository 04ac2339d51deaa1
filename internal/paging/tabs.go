package paging

// TabSet holds an independent pager per tab. Switching tabs always lands
// on page 1, and the caller re-fetches both count and page.
type TabSet[K comparable] struct {
	tabs   []K
	active int
	pagers map[K]*Pager
}

// NewTabSet creates a tab set with the first tab active.
func NewTabSet[K comparable](size int, tabs ...K) *TabSet[K] {
	ts := &TabSet[K]{
		tabs:   tabs,
		pagers: make(map[K]*Pager, len(tabs)),
	}
	for _, t := range tabs {
		p := New(size)
		ts.pagers[t] = &p
	}
	return ts
}

// Tabs returns the tabs in display order.
func (ts *TabSet[K]) Tabs() []K { return ts.tabs }

// Active returns the selected tab.
func (ts *TabSet[K]) Active() K { return ts.tabs[ts.active] }

// Pager returns the active tab's pager.
func (ts *TabSet[K]) Pager() *Pager { return ts.pagers[ts.Active()] }

// PagerFor returns the pager of a specific tab, or nil if unknown.
func (ts *TabSet[K]) PagerFor(tab K) *Pager { return ts.pagers[tab] }

// Switch selects tab and resets it to page 1. It returns false for an
// unknown tab.
func (ts *TabSet[K]) Switch(tab K) bool {
	for i, t := range ts.tabs {
		if t == tab {
			ts.active = i
			ts.pagers[t].Reset()
			return true
		}
	}
	return false
}

// NextTab cycles forward and resets the new tab to page 1.
func (ts *TabSet[K]) NextTab() K {
	ts.Switch(ts.tabs[(ts.active+1)%len(ts.tabs)])
	return ts.Active()
}

// PrevTab cycles backward and resets the new tab to page 1.
func (ts *TabSet[K]) PrevTab() K {
	ts.Switch(ts.tabs[(ts.active-1+len(ts.tabs))%len(ts.tabs)])
	return ts.Active()
}

// Tracker hands out request tickets so that only the response to the
// most recent request is applied ("last write wins").
type Tracker struct {
	seq uint64
}

// Begin starts a new request and returns its ticket.
func (t *Tracker) Begin() uint64 {
	t.seq++
	return t.seq
}

// Current reports whether ticket belongs to the latest request.
func (t *Tracker) Current(ticket uint64) bool { return ticket == t.seq }
