// Package session derives mentor session status from wall-clock time and
// orders the sessions an applicant should see.
package session

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/nhle/jobportal/internal/model"
)

// Status is the lifecycle position of a session relative to now.
type Status int

const (
	StatusActive Status = iota
	StatusUpcoming
	StatusExpired
)

// String returns the label shown on the session badge.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusUpcoming:
		return "Upcoming"
	default:
		return "Expired"
	}
}

// Rank orders statuses for display: Active first, then Upcoming.
func (s Status) Rank() int { return int(s) }

// Classify returns Active when start <= now < end, Upcoming when
// now < start, and Expired otherwise.
func Classify(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusActive
	default:
		return StatusExpired
	}
}

// Window returns the [start, end) interval for a session.
func Window(s model.MentorSession, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Start(s.Date, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	dur := s.DurationMin
	if dur < 0 {
		dur = 0
	}
	return start, start.Add(time.Duration(dur) * time.Minute), nil
}

// Entry is a session with its derived interval and status.
type Entry struct {
	Session model.MentorSession
	Start   time.Time
	End     time.Time
	Status  Status
}

// Evaluate classifies every session at now and returns the visible
// (non-expired) ones sorted by status rank, then by ascending start.
// Sessions whose date or time cannot be parsed are returned separately
// so the caller can log them; they are never shown.
func Evaluate(
	sessions []model.MentorSession,
	now time.Time,
	loc *time.Location,
) (visible []Entry, invalid []error) {
	for _, s := range sessions {
		start, end, err := Window(s, loc)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		st := Classify(start, end, now)
		if st == StatusExpired {
			continue
		}
		visible = append(visible, Entry{Session: s, Start: start, End: end, Status: st})
	}
	Sort(visible)
	return visible, invalid
}

// Sort orders entries by (status rank, start). Entries that tie on both
// keep their input order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := entries[i].Status.Rank(), entries[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		return entries[i].Start.Before(entries[j].Start)
	})
}

// FormatRange renders "Mon, Jan 2 · 10:00–11:00" for a session window.
// Windows crossing midnight include the end date.
func FormatRange(start, end time.Time) string {
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s · %s–%s",
			start.Format("Mon, Jan 2"), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s – %s",
		start.Format("Mon, Jan 2 15:04"), end.Format("Mon, Jan 2 15:04"))
}

// Until describes how long until start, or how long is left when active.
func Until(e Entry, now time.Time) string {
	var d time.Duration
	var suffix string
	switch e.Status {
	case StatusActive:
		d = e.End.Sub(now)
		suffix = "left"
	case StatusUpcoming:
		d = e.Start.Sub(now)
		suffix = "to go"
	default:
		return "ended"
	}

	d = d.Round(time.Minute)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm %s", int(d.Minutes()), suffix)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm %s", int(d.Hours()), int(d.Minutes())%60, suffix)
	default:
		return fmt.Sprintf("%dd %s", int(d.Hours()/24), suffix)
	}
}

// calendarStamp is the UTC basic format Google Calendar expects.
const calendarStamp = "20060102T150405Z"

// CalendarLink builds an "add to Google Calendar" URL for the session.
func CalendarLink(e Entry) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", e.Session.Title)
	q.Set("dates", e.Start.UTC().Format(calendarStamp)+"/"+e.End.UTC().Format(calendarStamp))
	details := e.Session.Description
	if e.Session.MeetingLink != "" {
		if details != "" {
			details += "\n\n"
		}
		details += "Join: " + e.Session.MeetingLink
	}
	if details != "" {
		q.Set("details", details)
	}
	if e.Session.MentorName != "" {
		q.Set("location", "with "+e.Session.MentorName)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
