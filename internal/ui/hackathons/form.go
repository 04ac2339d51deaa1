package hackathons

import (
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/theme"
	"github.com/nhle/jobportal/internal/validate"
)

// formSubmitMsg carries a validated payload out of the create form.
type formSubmitMsg struct {
	Input model.HackathonInput
}

// formCancelMsg is sent when the user aborts a form.
type formCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	theme       string
	company     string
	bannerURL   string
	rules       string
	eligibility string
	prize       string
	teamSize    string
	deadline    string
	startAt     string
	endAt       string
}

// input converts the bindings into a creation payload. Field-level parse
// failures and cross-field rules are both reported as validate.FieldErrors.
func (fb *formBindings) input(recruiterID model.ID, now time.Time, loc *time.Location) (model.HackathonInput, error) {
	in := model.HackathonInput{
		Title:       strings.TrimSpace(fb.title),
		Description: strings.TrimSpace(fb.description),
		Theme:       strings.TrimSpace(fb.theme),
		Company:     strings.TrimSpace(fb.company),
		BannerURL:   strings.TrimSpace(fb.bannerURL),
		Rules:       strings.TrimSpace(fb.rules),
		Eligibility: strings.TrimSpace(fb.eligibility),
		CreatedBy:   recruiterID,
	}

	var errs validate.FieldErrors
	fail := func(field string, err error) {
		errs = append(errs, validate.FieldError{Field: field, Message: err.Error()})
	}

	if p, err := parsePrize(fb.prize); err != nil {
		fail("prize", err)
	} else {
		in.Prize = p
	}
	if n, err := parseTeamSize(fb.teamSize); err != nil {
		fail("maxTeamSize", err)
	} else {
		in.MaxTeamSize = n
	}

	dates := []struct {
		field string
		raw   string
		dst   *time.Time
	}{
		{"registrationDeadline", fb.deadline, &in.RegistrationDeadline},
		{"startAt", fb.startAt, &in.StartAt},
		{"endAt", fb.endAt, &in.EndAt},
	}
	for _, d := range dates {
		t, err := validate.DateTime(d.raw, loc)
		if err != nil {
			fail(d.field, err)
			continue
		}
		*d.dst = t
	}
	if len(errs) > 0 {
		return in, errs
	}

	if err := validate.Hackathon(in, now); err != nil {
		return in, err
	}
	return in, nil
}

func parsePrize(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("Prize must be a number")
	}
	if v < 0 {
		return 0, errors.New("Prize cannot be negative")
	}
	return v, nil
}

func parseTeamSize(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < validate.HackathonTeamMin || n > validate.HackathonTeamMax {
		return 0, errors.New("Team size must be between 1 and 10")
	}
	return n, nil
}

func validateDateField(loc *time.Location) func(string) error {
	return func(s string) error {
		_, err := validate.DateTime(s, loc)
		return err
	}
}

func validateOptionalURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validate.URL(s)
}

// createForm is the hackathon creation form.
type createForm struct {
	form        *huh.Form
	fb          *formBindings
	recruiterID model.ID
	loc         *time.Location
	now         func() time.Time
	problem     string
	width       int
	height      int
}

func newCreateForm(recruiterID model.ID, loc *time.Location, now func() time.Time) createForm {
	return createForm{
		fb:          &formBindings{},
		recruiterID: recruiterID,
		loc:         loc,
		now:         now,
	}
}

// start resets the bindings and builds a fresh form.
func (c *createForm) start() tea.Cmd {
	*c.fb = formBindings{teamSize: "4"}
	c.problem = ""
	c.form = c.build()
	return c.form.Init()
}

// reopen rebuilds the form keeping the values entered so far.
func (c *createForm) reopen(problem string) tea.Cmd {
	c.problem = problem
	c.form = c.build()
	return c.form.Init()
}

func (c createForm) update(msg tea.Msg) (createForm, tea.Cmd) {
	if c.form == nil {
		return c, nil
	}

	mdl, cmd := c.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		c.form = f
	}

	switch c.form.State {
	case huh.StateCompleted:
		in, err := c.fb.input(c.recruiterID, c.now(), c.loc)
		if err != nil {
			var fe validate.FieldErrors
			problem := err.Error()
			if errors.As(err, &fe) {
				problem = fe.First()
			}
			return c, c.reopen(problem)
		}
		return c, func() tea.Msg { return formSubmitMsg{Input: in} }
	case huh.StateAborted:
		return c, func() tea.Msg { return formCancelMsg{} }
	}
	return c, cmd
}

func (c createForm) view() string {
	if c.form == nil {
		return ""
	}
	content := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("New Hackathon") + "\n"
	if c.problem != "" {
		content += theme.ErrorStyle.Render(c.problem) + "\n\n"
	}
	content += c.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (c *createForm) build() *huh.Form {
	dateHint := "YYYY-MM-DD HH:MM"
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&c.fb.title).
				Validate(validate.MinLength("Title", validate.HackathonTitleMin)),
			huh.NewText().
				Title("Description").
				Value(&c.fb.description).
				Validate(validate.MinLength("Description", validate.HackathonDescriptionMin)),
			huh.NewInput().
				Title("Theme").
				Value(&c.fb.theme).
				Validate(validate.MinLength("Theme", validate.HackathonThemeMin)),
			huh.NewInput().
				Title("Company").
				Value(&c.fb.company).
				Validate(validate.Required("Company")),
		).Title("About"),
		huh.NewGroup(
			huh.NewInput().
				Title("Prize").
				Placeholder("0").
				Value(&c.fb.prize).
				Validate(func(s string) error {
					_, err := parsePrize(s)
					return err
				}),
			huh.NewInput().
				Title("Max team size").
				Value(&c.fb.teamSize).
				Validate(func(s string) error {
					_, err := parseTeamSize(s)
					return err
				}),
			huh.NewInput().
				Title("Registration deadline").
				Placeholder(dateHint).
				Value(&c.fb.deadline).
				Validate(validateDateField(c.loc)),
			huh.NewInput().
				Title("Starts").
				Placeholder(dateHint).
				Value(&c.fb.startAt).
				Validate(validateDateField(c.loc)),
			huh.NewInput().
				Title("Ends").
				Placeholder(dateHint).
				Value(&c.fb.endAt).
				Validate(validateDateField(c.loc)),
		).Title("Schedule"),
		huh.NewGroup(
			huh.NewInput().
				Title("Banner URL").
				Placeholder("optional").
				Value(&c.fb.bannerURL).
				Validate(validateOptionalURL),
			huh.NewText().
				Title("Rules").
				Placeholder("optional").
				Value(&c.fb.rules),
			huh.NewText().
				Title("Eligibility").
				Placeholder("optional").
				Value(&c.fb.eligibility),
		).Title("Details"),
	).WithWidth(formWidth(c.width)).WithHeight(formHeight(c.height))
}

func formWidth(w int) int {
	w -= 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func formHeight(h int) int {
	h -= 6
	if h < 10 {
		h = 10
	}
	return h
}
