package ui

import (
	"strings"
	"time"

	"github.com/bnema/waytile/internal/registry"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusFetcher queries a running instance
type StatusFetcher func() (*registry.Status, error)

type statusMsg struct {
	status *registry.Status
	err    error
}

type pollMsg time.Time

// WatchModel polls a running instance and redraws its status
type WatchModel struct {
	fetch    StatusFetcher
	interval time.Duration
	spinner  spinner.Model

	status  *registry.Status
	err     error
	updated time.Time
	width   int
}

// NewWatchModel creates a watch model polling every interval
func NewWatchModel(fetch StatusFetcher, interval time.Duration) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = InfoStyle

	return &WatchModel{
		fetch:    fetch,
		interval: interval,
		spinner:  s,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m *WatchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := m.fetch()
		return statusMsg{status: st, err: err}
	}
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.updated = time.Now()
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return pollMsg(t)
		})

	case pollMsg:
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *WatchModel) View() string {
	var b strings.Builder

	switch {
	case m.status != nil:
		b.WriteString(RenderStatus(m.status))
	case m.err == nil:
		b.WriteString(m.spinner.View() + " Connecting...")
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(ErrorStyle.Render(IconError + " " + m.err.Error()))
	}

	b.WriteString("\n\n")
	footer := m.spinner.View() + " q quit • r refresh"
	if !m.updated.IsZero() {
		footer += " • updated " + m.updated.Format("15:04:05")
	}
	b.WriteString(SubtleStyle.Render(footer))
	b.WriteString("\n")
	return b.String()
}

// RenderStatus renders the full status of a running instance
func RenderStatus(st *registry.Status) string {
	var b strings.Builder
	b.WriteString(FormatAppHeader("WAYTILE STATUS", "namespace "+st.Namespace))
	b.WriteString("\n\n")

	if len(st.Sessions) == 0 {
		b.WriteString(SubtleStyle.Render("No outputs"))
	} else {
		b.WriteString(RenderSessions(st.Sessions))
	}

	b.WriteString("\n\n")
	b.WriteString(FormatCheck(st.LayoutManager, "river-layout-v1", ""))
	b.WriteString("\n")
	b.WriteString(FormatCheck(st.OptionsManager, "river-options-v1", ""))
	return b.String()
}
