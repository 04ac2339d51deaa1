package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/jobportal/internal/session"
)

// When renders a backend timestamp (ISO string or int array) as a short
// local date. Unparseable values are shown as sent; missing ones as "".
func When(raw json.RawMessage, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, err := session.ParseInstant(raw, loc)
	if err != nil {
		if len(raw) == 0 || string(raw) == "null" {
			return ""
		}
		return strings.Trim(string(raw), `"`)
	}
	return t.In(loc).Format("Jan 2, 2006 15:04")
}

// Salary renders a min/max salary range. Zero bounds are omitted.
func Salary(min, max float64) string {
	switch {
	case min <= 0 && max <= 0:
		return ""
	case max <= 0:
		return fmt.Sprintf("from %s", amount(min))
	case min <= 0:
		return fmt.Sprintf("up to %s", amount(max))
	default:
		return fmt.Sprintf("%s – %s", amount(min), amount(max))
	}
}

func amount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// Experience renders a years-of-experience range.
func Experience(min, max int) string {
	switch {
	case min <= 0 && max <= 0:
		return ""
	case max <= min:
		return fmt.Sprintf("%d+ yrs", min)
	default:
		return fmt.Sprintf("%d–%d yrs", min, max)
	}
}

// Duration renders seconds as m:ss or h:mm:ss.
func Duration(sec int) string {
	if sec <= 0 {
		return ""
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
