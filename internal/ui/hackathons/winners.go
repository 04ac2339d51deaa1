package hackathons

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/theme"
)

// podium is the number of places that can be declared.
const podium = 3

// winnersSubmitMsg carries the chosen ranking out of the winners form.
type winnersSubmitMsg struct {
	Winners []model.Winner
}

type winnerBindings struct {
	places [podium]string
}

// ranking turns the selected submission ids into winners. First place is
// mandatory, a lower place cannot be filled while a higher one is empty, and
// a submission may hold only one place.
func (wb *winnerBindings) ranking() ([]model.Winner, error) {
	if wb.places[0] == "" {
		return nil, errors.New("Pick a first place winner")
	}
	seen := make(map[string]bool, podium)
	var out []model.Winner
	gap := false
	for i, id := range wb.places {
		if id == "" {
			gap = true
			continue
		}
		if gap {
			return nil, fmt.Errorf("Fill place %d before place %d", i, i+1)
		}
		if seen[id] {
			return nil, errors.New("A submission can only win one place")
		}
		seen[id] = true
		out = append(out, model.Winner{SubmissionID: model.ID(id), Position: i + 1})
	}
	return out, nil
}

// winnersForm selects up to three winning submissions.
type winnersForm struct {
	form    *huh.Form
	wb      *winnerBindings
	title   string
	problem string
	width   int
	height  int
	options []huh.Option[string]
}

func newWinnersForm() winnersForm {
	return winnersForm{wb: &winnerBindings{}}
}

func (w *winnersForm) start(h model.Hackathon, subs []model.Submission) tea.Cmd {
	*w.wb = winnerBindings{}
	w.title = h.Title
	w.problem = ""
	w.options = make([]huh.Option[string], 0, len(subs))
	for _, s := range subs {
		label := s.ProjectName
		if s.TeamName != "" {
			label += " · " + s.TeamName
		}
		if s.Score > 0 {
			label += fmt.Sprintf(" (%.1f)", s.Score)
		}
		w.options = append(w.options, huh.NewOption(label, s.ID.String()))
	}
	w.form = w.build()
	return w.form.Init()
}

func (w *winnersForm) reopen(problem string) tea.Cmd {
	w.problem = problem
	w.form = w.build()
	return w.form.Init()
}

func (w winnersForm) update(msg tea.Msg) (winnersForm, tea.Cmd) {
	if w.form == nil {
		return w, nil
	}

	mdl, cmd := w.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		w.form = f
	}

	switch w.form.State {
	case huh.StateCompleted:
		winners, err := w.wb.ranking()
		if err != nil {
			return w, w.reopen(err.Error())
		}
		return w, func() tea.Msg { return winnersSubmitMsg{Winners: winners} }
	case huh.StateAborted:
		return w, func() tea.Msg { return formCancelMsg{} }
	}
	return w, cmd
}

func (w winnersForm) view() string {
	if w.form == nil {
		return ""
	}
	content := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Declare winners · "+w.title) + "\n"
	if w.problem != "" {
		content += theme.ErrorStyle.Render(w.problem) + "\n\n"
	}
	content += w.form.View()
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (w *winnersForm) build() *huh.Form {
	labels := [podium]string{"1st place", "2nd place", "3rd place"}
	fields := make([]huh.Field, 0, podium)
	for i := range labels {
		opts := w.options
		if i > 0 {
			opts = append([]huh.Option[string]{huh.NewOption("None", "")}, w.options...)
		}
		fields = append(fields, huh.NewSelect[string]().
			Title(labels[i]).
			Options(opts...).
			Value(&w.wb.places[i]))
	}
	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(formWidth(w.width)).
		WithHeight(formHeight(w.height))
}
