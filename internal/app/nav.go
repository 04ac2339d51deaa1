package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/ui"
	"github.com/nhle/jobportal/internal/ui/command"
	"github.com/nhle/jobportal/internal/ui/resetpw"
)

// dashboard is the landing view for the signed-in role.
func (m Model) dashboard() ViewState {
	if m.identity != nil && m.identity.IsRecruiter() {
		return ViewHackathons
	}
	return ViewJobs
}

// offered reports whether v belongs to the signed-in role's dashboard.
func (m Model) offered(v ViewState) bool {
	if m.identity == nil {
		return false
	}
	switch v {
	case ViewNotifications:
		return true
	case ViewHackathons:
		return m.identity.IsRecruiter()
	case ViewJobs, ViewAlerts, ViewMentor, ViewVideos:
		return !m.identity.IsRecruiter()
	}
	return false
}

// switchTo leaves the current view and enters v.
func (m *Model) switchTo(v ViewState) tea.Cmd {
	if m.currentView == v {
		return nil
	}
	m.leave(m.currentView)
	m.currentView = v
	return m.enter(v)
}

// leave releases what a view holds while visible: in-flight fetches and
// refresh tickers.
func (m *Model) leave(v ViewState) {
	switch v {
	case ViewMentor:
		m.mentorView.Close()
	case ViewVideos:
		m.videosView.Close()
	}
}

// enter starts a view's first load, or refreshes views whose data goes
// stale quickly.
func (m *Model) enter(v ViewState) tea.Cmd {
	first := !m.started[v]
	m.started[v] = true

	switch v {
	case ViewJobs:
		if first {
			return m.jobsView.Init()
		}
	case ViewHackathons:
		if first {
			return m.hackView.Init()
		}
	case ViewAlerts:
		if first {
			return m.alertsView.Init()
		}
	case ViewNotifications:
		if first {
			return m.notifView.Init()
		}
		return m.notifView.Load()
	case ViewMentor:
		return m.mentorView.Open()
	case ViewVideos:
		return m.videosView.Open()
	}
	return nil
}

// refreshActive reloads the active view's data.
func (m *Model) refreshActive() tea.Cmd {
	switch m.currentView {
	case ViewJobs:
		return m.jobsView.Reload()
	case ViewHackathons:
		return m.hackView.Reload()
	case ViewAlerts:
		return m.alertsView.Reload()
	case ViewNotifications:
		return m.notifView.Load()
	case ViewMentor:
		return m.mentorView.Open()
	case ViewVideos:
		return m.videosView.Open()
	}
	return nil
}

// openSetup shows the sign-in form with an optional notice.
func (m *Model) openSetup(notice string) tea.Cmd {
	m.leave(m.currentView)
	m.currentView = ViewSetup
	return m.setupView.Start(notice)
}

// openReset starts the password reset flow with a fresh view.
func (m *Model) openReset() tea.Cmd {
	var mail resetpw.CodeReader
	if m.deps.Mail != nil && m.cfg.Mail.Enabled() {
		mail = m.deps.Mail(m.cfg.Mail)
	}
	email := ""
	if m.identity != nil {
		email = m.identity.Email
	}

	m.leave(m.currentView)
	m.resetFrom = m.currentView
	m.resetView = resetpw.New(m.client, mail, m.keys, m.contentWidth(), m.contentHeight())
	m.currentView = ViewReset
	return m.resetView.Start(email)
}

// commands lists the palette commands available in the current session.
func (m Model) commands() []command.Command {
	var cmds []command.Command
	if m.identity != nil {
		if m.identity.IsRecruiter() {
			cmds = append(cmds, command.Command{Name: "hackathons", Desc: "Hackathons you organise"})
		} else {
			cmds = append(cmds,
				command.Command{Name: "jobs", Desc: "Recommended, applied and saved jobs"},
				command.Command{Name: "alerts", Desc: "Job alerts"},
				command.Command{Name: "mentor", Desc: "Upcoming mentor sessions"},
				command.Command{Name: "videos", Desc: "Recommended videos"},
			)
		}
		cmds = append(cmds,
			command.Command{Name: "notifications", Desc: "Your notifications"},
			command.Command{Name: "refresh", Aliases: []string{"sync"}, Desc: "Reload this view and the unread count"},
			command.Command{Name: "sign out", Aliases: []string{"logout"}, Desc: "Forget the saved token"},
		)
	}
	return append(cmds,
		command.Command{Name: "sign in", Aliases: []string{"login"}, Desc: "Change the portal URL or token"},
		command.Command{Name: "reset password", Aliases: []string{"forgot password"}, Desc: "Reset your password with an emailed code"},
		command.Command{Name: "help", Desc: "Keyboard shortcuts"},
		command.Command{Name: "quit", Aliases: []string{"q"}, Desc: "Exit"},
	)
}

func (m *Model) refreshCommands() {
	commands := m.commands()
	m.helpView.SetCommands(commands)
	m.commandView.SetCommands(commands)
}

var commandViews = map[string]ViewState{
	"jobs":          ViewJobs,
	"hackathons":    ViewHackathons,
	"alerts":        ViewAlerts,
	"notifications": ViewNotifications,
	"mentor":        ViewMentor,
	"videos":        ViewVideos,
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	if v, ok := commandViews[cmd]; ok {
		if !m.offered(v) {
			return ui.Notify("%s is not available", viewTitles[v])
		}
		return m.switchTo(v)
	}

	switch cmd {
	case "refresh", "sync":
		if m.identity == nil {
			return nil
		}
		if m.poller != nil {
			m.poller.RefreshAll()
		}
		return m.refreshActive()
	case "sign in", "login":
		return m.openSetup("")
	case "sign out", "logout":
		return m.signOut("Signed out.")
	case "reset password", "forgot password":
		return m.openReset()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit", "q":
		m.leave(m.currentView)
		m.stopPoller()
		return tea.Quit
	default:
		logger.Debug().Str("command", cmd).Msg("unknown command")
		return ui.Notify("Unknown command: %s", cmd)
	}
}
