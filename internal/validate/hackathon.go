package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/jobportal/internal/model"
)

// Hackathon form limits.
const (
	HackathonTitleMin       = 5
	HackathonDescriptionMin = 20
	HackathonThemeMin       = 3
	HackathonTeamMin        = 1
	HackathonTeamMax        = 10
)

// FieldError names the offending form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// FieldErrors is the ordered set of failures for a form.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// First returns the first failure's message, or "".
func (fe FieldErrors) First() string {
	if len(fe) == 0 {
		return ""
	}
	return fe[0].Message
}

// Hackathon validates a creation payload. Dates must satisfy
// registration deadline <= start < end, and start may not be in the past
// relative to now.
func Hackathon(in model.HackathonInput, now time.Time) error {
	var errs FieldErrors
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
	}

	add("title", MinLength("Title", HackathonTitleMin)(in.Title))
	add("description", MinLength("Description", HackathonDescriptionMin)(in.Description))
	add("theme", MinLength("Theme", HackathonThemeMin)(in.Theme))
	add("company", Required("Company")(in.Company))

	if in.MaxTeamSize < HackathonTeamMin || in.MaxTeamSize > HackathonTeamMax {
		add("maxTeamSize", fmt.Errorf("Team size must be between %d and %d", HackathonTeamMin, HackathonTeamMax))
	}
	if in.Prize < 0 {
		add("prize", errors.New("Prize cannot be negative"))
	}
	if in.BannerURL != "" {
		add("bannerUrl", URL(in.BannerURL))
	}

	switch {
	case in.StartAt.IsZero():
		add("startAt", errors.New("Start date is required"))
	case in.StartAt.Before(now):
		add("startAt", errors.New("Start date cannot be in the past"))
	}
	switch {
	case in.EndAt.IsZero():
		add("endAt", errors.New("End date is required"))
	case !in.StartAt.IsZero() && !in.EndAt.After(in.StartAt):
		add("endAt", errors.New("End date must be after the start date"))
	}
	switch {
	case in.RegistrationDeadline.IsZero():
		add("registrationDeadline", errors.New("Registration deadline is required"))
	case !in.StartAt.IsZero() && in.RegistrationDeadline.After(in.StartAt):
		add("registrationDeadline", errors.New("Registration must close before the hackathon starts"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// URL accepts absolute http(s) links.
func URL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Enter a valid http(s) link")
	}
	return nil
}

// DateTimeLayout is the format typed into date-time form fields.
const DateTimeLayout = "2006-01-02 15:04"

// DateTime validates and parses a "YYYY-MM-DD HH:MM" form value in loc.
func DateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("Date is required")
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, errors.New("Use the format YYYY-MM-DD HH:MM")
	}
	return t, nil
}
