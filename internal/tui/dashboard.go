// Package tui renders the watch-mode dashboard: a live view of server,
// session and snapshot state that re-runs reconciliation on a fixed
// interval and whenever the snapshot document changes on disk.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muxkeep/muxkeep/internal/util"
)

// State is one observation of the supervised system, produced by a refresh.
type State struct {
	Session        string
	ServerUp       bool
	SessionPresent bool
	// Outcome is the last reconciliation outcome, human-readable.
	Outcome string
	// SnapshotPath is empty when no snapshot document exists.
	SnapshotPath string
	SnapshotAge  time.Duration
	LastCheck    time.Time
	// Err is the last unrecoverable reconciliation failure, if any.
	Err error
}

// Refresher re-runs reconciliation and reports the resulting state. It is
// called off the UI goroutine.
type Refresher func(ctx context.Context) State

// Model is the bubbletea model for the dashboard.
type Model struct {
	refresh  Refresher
	interval time.Duration
	// notify delivers out-of-band refresh triggers (snapshot file changes).
	notify <-chan struct{}

	spinner  spinner.Model
	state    State
	width    int
	checking bool
	quitting bool
}

type stateMsg State

type tickMsg struct{}

type notifyMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(10)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// New creates a dashboard model. interval is the periodic re-check cadence;
// notify may be nil when no snapshot watcher is available.
func New(refresh Refresher, interval time.Duration, notify <-chan struct{}) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	return Model{
		refresh:  refresh,
		interval: interval,
		notify:   notify,
		spinner:  sp,
		checking: true,
	}
}

// Init kicks off the spinner, the first reconciliation and the notification
// listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd(), m.waitNotify())
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(m.refresh(context.Background()))
	}
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) waitNotify() tea.Cmd {
	if m.notify == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-m.notify; !ok {
			return nil
		}
		return notifyMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.checking {
				m.checking = true
				return m, m.refreshCmd()
			}
		}
		return m, nil

	case stateMsg:
		m.state = State(msg)
		m.checking = false
		return m, m.scheduleTick()

	case tickMsg:
		m.checking = true
		return m, m.refreshCmd()

	case notifyMsg:
		// Snapshot changed on disk; re-check now and keep listening.
		cmds := []tea.Cmd{m.waitNotify()}
		if !m.checking {
			m.checking = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := titleStyle.Render("muxkeep") + " " + dimStyle.Render("watching "+m.state.Session) + "\n\n"

	s += m.row(labelStyle.Render("server") + renderUpDown(m.state.ServerUp))
	s += m.row(labelStyle.Render("session") + renderPresence(m.state.SessionPresent))
	s += m.row(labelStyle.Render("snapshot") + renderSnapshot(m.state))
	s += m.row(labelStyle.Render("last run") + renderLastRun(m.state))

	if m.checking {
		s += "\n" + m.spinner.View() + dimStyle.Render(" reconciling...")
	} else if !m.state.LastCheck.IsZero() {
		s += "\n" + dimStyle.Render("checked "+m.state.LastCheck.Format("15:04:05"))
	}

	s += helpStyle.Render("\nr: refresh now  q: quit")
	return s
}

// row fits one dashboard line to the terminal, keeping long snapshot paths
// and error messages from wrapping.
func (m Model) row(line string) string {
	if m.width > 0 {
		line = util.TruncateANSI(line, m.width)
	}
	return line + "\n"
}

func renderUpDown(up bool) string {
	if up {
		return okStyle.Render("up")
	}
	return badStyle.Render("down")
}

func renderPresence(present bool) string {
	if present {
		return okStyle.Render("present")
	}
	return badStyle.Render("absent")
}

func renderSnapshot(st State) string {
	if st.SnapshotPath == "" {
		return dimStyle.Render("none")
	}
	return fmt.Sprintf("%s %s", st.SnapshotPath, dimStyle.Render(fmt.Sprintf("(%s old)", st.SnapshotAge.Round(time.Second))))
}

func renderLastRun(st State) string {
	if st.Err != nil {
		return badStyle.Render(st.Err.Error())
	}
	if st.Outcome == "" {
		return dimStyle.Render("pending")
	}
	return st.Outcome
}
