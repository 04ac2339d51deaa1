package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissing is returned when a date or time field is absent or null.
var ErrMissing = errors.New("missing value")

// civil is a calendar date without zone.
type civil struct {
	year  int
	month time.Month
	day   int
}

// clock is a wall-clock time of day.
type clock struct {
	hour, minute, second int
}

// dateLayouts are tried in order for string dates. Layouts that carry a
// time of day also yield a clock.
var dateLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02", false},
	{"2006-01-02T15:04", true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
}

// clockLayouts are tried in order for string times.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"15:04:05.999999999",
	"3:04 PM",
	"03:04 PM",
	"3:04PM",
}

// decode splits a raw JSON value into either an int array or a string.
func decode(raw json.RawMessage) ([]int, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", ErrMissing
	}

	switch trimmed[0] {
	case '[':
		var parts []int
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return nil, "", fmt.Errorf("decoding array %s: %w", trimmed, err)
		}
		return parts, "", nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, "", fmt.Errorf("decoding string %s: %w", trimmed, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, "", ErrMissing
		}
		return nil, s, nil
	default:
		return nil, "", fmt.Errorf("unsupported date value %s", trimmed)
	}
}

// parseDate reads [y,m,d], [y,m,d,h,min(,s)] or an ISO-like string.
// The returned clock is non-nil when the value also carried a time.
func parseDate(raw json.RawMessage, loc *time.Location) (civil, *clock, error) {
	parts, s, err := decode(raw)
	if err != nil {
		return civil{}, nil, err
	}

	if parts != nil {
		if len(parts) < 3 {
			return civil{}, nil, fmt.Errorf("date array %v needs at least 3 elements", parts)
		}
		d := civil{year: parts[0], month: time.Month(parts[1]), day: parts[2]}
		if err := d.check(); err != nil {
			return civil{}, nil, err
		}
		if len(parts) >= 5 {
			c := clock{hour: parts[3], minute: parts[4]}
			if len(parts) >= 6 {
				c.second = parts[5]
			}
			if err := c.check(); err != nil {
				return civil{}, nil, err
			}
			return d, &c, nil
		}
		return d, nil, nil
	}

	// Zoned timestamps name an instant; read its wall clock in loc.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.In(loc)
		return civil{t.Year(), t.Month(), t.Day()},
			&clock{t.Hour(), t.Minute(), t.Second()}, nil
	}

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		d := civil{t.Year(), t.Month(), t.Day()}
		if l.hasTime {
			return d, &clock{t.Hour(), t.Minute(), t.Second()}, nil
		}
		return d, nil, nil
	}

	return civil{}, nil, fmt.Errorf("unrecognized date %q", s)
}

// parseClock reads [h,min(,s(,nanos))] or "HH:MM", "HH:MM:SS", "3:04 PM".
func parseClock(raw json.RawMessage) (clock, error) {
	parts, s, err := decode(raw)
	if err != nil {
		return clock{}, err
	}

	if parts != nil {
		if len(parts) < 2 {
			return clock{}, fmt.Errorf("time array %v needs at least 2 elements", parts)
		}
		c := clock{hour: parts[0], minute: parts[1]}
		if len(parts) >= 3 {
			c.second = parts[2]
		}
		return c, c.check()
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return clock{t.Hour(), t.Minute(), t.Second()}, nil
		}
	}
	return clock{}, fmt.Errorf("unrecognized time %q", s)
}

func (d civil) check() error {
	if d.month < time.January || d.month > time.December || d.day < 1 ||
		time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Day() != d.day {
		return fmt.Errorf("invalid date %04d-%02d-%02d", d.year, d.month, d.day)
	}
	return nil
}

func (c clock) check() error {
	if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 || c.second < 0 || c.second > 59 {
		return fmt.Errorf("invalid time %02d:%02d:%02d", c.hour, c.minute, c.second)
	}
	return nil
}

// Start combines a date and a time into a wall-clock instant in loc.
// When timeRaw is empty the time embedded in dateRaw is used, and when
// neither carries one the start is midnight.
func Start(dateRaw, timeRaw json.RawMessage, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	d, embedded, err := parseDate(dateRaw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing session date: %w", err)
	}

	c := clock{}
	switch tc, err := parseClock(timeRaw); {
	case err == nil:
		c = tc
	case errors.Is(err, ErrMissing):
		if embedded != nil {
			c = *embedded
		}
	default:
		return time.Time{}, fmt.Errorf("parsing session time: %w", err)
	}

	return time.Date(d.year, d.month, d.day, c.hour, c.minute, c.second, 0, loc), nil
}

// ParseInstant decodes a single timestamp field in either wire form.
// It is used for display-only timestamps such as notification dates.
func ParseInstant(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	return Start(raw, nil, loc)
}
