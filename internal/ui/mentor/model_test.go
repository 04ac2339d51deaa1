package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/keys"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/session"
)

type fakeAPI struct {
	sessions []model.MentorSession
	err      error
	block    chan struct{}
}

func (f *fakeAPI) MentorSessions(ctx context.Context, _ model.ID) ([]model.MentorSession, error) {
	if f.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.block:
		}
	}
	return f.sessions, f.err
}

func mentorSession(id, date, start string, dur int) model.MentorSession {
	return model.MentorSession{
		ID:          model.ID(id),
		Title:       "Session " + id,
		Date:        json.RawMessage(date),
		StartTime:   json.RawMessage(start),
		DurationMin: dur,
		MeetingLink: "https://meet.example.com/" + id,
	}
}

// runLoad runs a fetch command and returns its LoadedMsg.
func runLoad(cmd tea.Cmd) (LoadedMsg, bool) {
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		return LoadedMsg{}, false
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(LoadedMsg); ok {
			return msg, true
		}
	}
	return LoadedMsg{}, false
}

func loadedFrom(t *testing.T, cmd tea.Cmd) LoadedMsg {
	t.Helper()
	msg, ok := runLoad(cmd)
	require.True(t, ok, "no LoadedMsg in batch")
	return msg
}

func newModel(api API, now time.Time) Model {
	m := New(api, keys.DefaultKeyMap(), "11", 80, 24)
	m.loc = time.UTC
	m.now = func() time.Time { return now }
	return m
}

func TestLoadedSessionsAreFilteredAndOrdered(t *testing.T) {
	api := &fakeAPI{sessions: []model.MentorSession{
		mentorSession("late", `[2024,1,1]`, `[15,0]`, 30),
		mentorSession("gone", `"2024-01-01"`, `"08:00"`, 60),
		mentorSession("live", `"2024-01-01"`, `"10:00"`, 60),
		mentorSession("soon", `[2024,1,1]`, `"12:00"`, 45),
		mentorSession("bad", `"someday"`, `"10:00"`, 60),
	}}
	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	m := newModel(api, now)

	m, _ = m.Update(loadedFrom(t, m.fetch()))

	var ids []model.ID
	for _, e := range m.Entries() {
		ids = append(ids, e.Session.ID)
	}
	assert.Equal(t, []model.ID{"live", "soon", "late"}, ids)
	assert.Equal(t, session.StatusActive, m.Entries()[0].Status)
	assert.Contains(t, m.View(), "Active")
	assert.Nil(t, m.cancel, "finished fetch releases its context")
}

func TestTickReEvaluatesStatus(t *testing.T) {
	api := &fakeAPI{sessions: []model.MentorSession{
		mentorSession("a", `"2024-01-01"`, `"10:00"`, 60),
	}}
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m := newModel(api, now)
	m.gen = 1
	m, _ = m.Update(loadedFrom(t, m.fetch()))
	require.Len(t, m.Entries(), 1)
	assert.Equal(t, session.StatusUpcoming, m.Entries()[0].Status)

	now = time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	// A tick from a stopped chain is ignored.
	m, cmd := m.Update(TickMsg{Gen: 0})
	assert.Nil(t, cmd)
	assert.Equal(t, session.StatusUpcoming, m.Entries()[0].Status)

	m, cmd = m.Update(TickMsg{Gen: 1})
	assert.NotNil(t, cmd, "tick chain continues")
	assert.Equal(t, session.StatusActive, m.Entries()[0].Status)

	now = time.Date(2024, 1, 1, 11, 1, 0, 0, time.UTC)
	m, _ = m.Update(TickMsg{Gen: 1})
	assert.Empty(t, m.Entries())
}

func TestNewFetchCancelsPrevious(t *testing.T) {
	api := &fakeAPI{
		sessions: []model.MentorSession{mentorSession("a", `"2024-01-01"`, `"10:00"`, 60)},
		block:    make(chan struct{}),
	}
	m := newModel(api, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	first := m.fetch()
	done := make(chan LoadedMsg, 1)
	go func() {
		msg, _ := runLoad(first)
		done <- msg
	}()

	second := m.fetch()

	var stale LoadedMsg
	select {
	case stale = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch was not cancelled")
	}
	assert.True(t, errors.Is(stale.Err, context.Canceled))

	m, cmd := m.Update(stale)
	assert.Nil(t, cmd)
	assert.Empty(t, m.Entries())

	close(api.block)
	m, _ = m.Update(loadedFrom(t, second))
	assert.Len(t, m.Entries(), 1)
}

func TestCloseCancelsInFlightFetch(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	m := newModel(api, time.Now())

	cmd := m.fetch()
	done := make(chan LoadedMsg, 1)
	go func() {
		msg, _ := runLoad(cmd)
		done <- msg
	}()

	m.Close()
	select {
	case msg := <-done:
		assert.True(t, errors.Is(msg.Err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the fetch")
	}
	assert.Nil(t, m.cancel)
}

func TestLoadFailureKeepsPriorEntries(t *testing.T) {
	api := &fakeAPI{sessions: []model.MentorSession{
		mentorSession("a", `"2024-01-01"`, `"10:00"`, 60),
	}}
	m := newModel(api, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	m, _ = m.Update(loadedFrom(t, m.fetch()))
	require.Len(t, m.Entries(), 1)

	api.err = errors.New("502")
	m, out := m.Update(loadedFrom(t, m.fetch()))
	assert.Len(t, m.Entries(), 1)
	require.NotNil(t, out)
	assert.Equal(t, "Could not load mentor sessions", m.err)
}

func TestResultAfterCloseIsDropped(t *testing.T) {
	api := &fakeAPI{sessions: []model.MentorSession{
		mentorSession("a", `"2024-01-01"`, `"10:00"`, 60),
	}}
	m := newModel(api, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	finished := loadedFrom(t, m.fetch())
	require.NoError(t, finished.Err)
	m.Close()

	m, cmd := m.Update(finished)
	assert.Nil(t, cmd)
	assert.False(t, m.loaded)
	assert.Empty(t, m.Entries())
}
