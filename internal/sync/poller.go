package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/portal"
)

// FeedName identifies a background feed.
type FeedName string

const (
	FeedUnread        FeedName = "unread"
	FeedProgressFlush FeedName = "progress-flush"
)

// FeedState represents the current state of a feed.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedRunning
	FeedError
)

// FeedStatus holds the poll state for a single feed.
type FeedStatus struct {
	Name    FeedName
	State   FeedState
	LastRun time.Time
	Value   int
	Error   error
}

// FetchFunc produces a feed's current value.
type FetchFunc func(ctx context.Context) (int, error)

// Feed is a named value refreshed on an interval and on demand.
type Feed struct {
	Name     FeedName
	Interval time.Duration
	Fetch    FetchFunc
}

// FeedResultMsg is a tea.Msg sent when a feed poll completes.
type FeedResultMsg struct {
	Feed      FeedName
	Value     int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the token.
type AuthErrorMsg struct {
	Feed    FeedName
	Message string
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

type feedEntry struct {
	feed    Feed
	trigger chan struct{}
}

// Poller orchestrates background polling of registered feeds.
type Poller struct {
	feeds    []*feedEntry
	statuses map[FeedName]*FeedStatus
	resultCh chan FeedResultMsg
	stopCh   chan struct{}
	wg       gosync.WaitGroup
	mu       gosync.Mutex
	running  bool
}

// New creates an empty Poller.
func New() *Poller {
	return &Poller{
		statuses: make(map[FeedName]*FeedStatus),
		resultCh: make(chan FeedResultMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// RegisterFeed adds a feed. Feeds registered after Start are not polled.
func (p *Poller) RegisterFeed(f Feed) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.feeds = append(p.feeds, &feedEntry{feed: f, trigger: make(chan struct{}, 1)})
	p.statuses[f.Name] = &FeedStatus{Name: f.Name, State: FeedIdle}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	feeds := append([]*feedEntry(nil), p.feeds...)
	p.mu.Unlock()

	for _, entry := range feeds {
		p.wg.Add(1)
		go p.pollFeed(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// Refresh triggers an immediate poll of one feed. Repeated triggers
// before the poll runs collapse into one.
func (p *Poller) Refresh(name FeedName) tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.feeds {
		if entry.feed.Name != name {
			continue
		}
		select {
		case entry.trigger <- struct{}{}:
		default:
		}
	}
	return nil
}

// RefreshAll triggers an immediate poll of every feed.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	names := make([]FeedName, 0, len(p.feeds))
	for _, entry := range p.feeds {
		names = append(names, entry.feed.Name)
	}
	p.mu.Unlock()

	for _, n := range names {
		p.Refresh(n)
	}
	return nil
}

// Status returns the current status of one feed.
func (p *Poller) Status(name FeedName) (FeedStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.statuses[name]
	if !ok {
		return FeedStatus{}, false
	}
	return *s, true
}

func (p *Poller) pollFeed(entry *feedEntry) {
	defer p.wg.Done()

	interval := entry.feed.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.runOnce(entry.feed)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runOnce(entry.feed)
		case <-entry.trigger:
			p.runOnce(entry.feed)
		}
	}
}

// runOnce performs a single fetch and publishes the result.
func (p *Poller) runOnce(f Feed) {
	p.setStatus(f.Name, FeedRunning, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	value, err := f.Fetch(ctx)
	if err != nil {
		p.setStatus(f.Name, FeedError, 0, err)
		log := logger.WithField("feed", string(f.Name))
		log.Warn().Err(err).Msg("feed poll failed")

		if portal.IsAuthError(err) {
			p.sendResult(FeedResultMsg{
				Feed:  f.Name,
				Error: err,
				AuthError: &AuthErrorMsg{
					Feed:    f.Name,
					Message: "Your session has expired. Sign in again.",
				},
			})
			return
		}

		p.sendResult(FeedResultMsg{Feed: f.Name, Error: err})
		return
	}

	p.setStatus(f.Name, FeedIdle, value, nil)
	p.sendResult(FeedResultMsg{Feed: f.Name, Value: value})
}

func (p *Poller) setStatus(name FeedName, state FeedState, value int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == FeedIdle && err == nil {
		status.Value = value
		status.LastRun = time.Now()
	}
}

// sendResult sends a FeedResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg FeedResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next feed result.
// Call it after handling each FeedResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
