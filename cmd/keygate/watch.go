package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ebolton/keygate/internal/engine"
	"github.com/ebolton/keygate/internal/indicator"
)

const watchPoll = time.Second

// watchModel polls the daemon and redraws the status frame.
type watchModel struct {
	spin   spinner.Model
	status engine.Status
	err    error
	loaded bool
}

type statusMsg engine.Status

type statusErrMsg struct{ err error }

type pollTickMsg struct{}

func newWatchModel() watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(indicator.ColorAccent)
	return watchModel{spin: s}
}

func pollStatus() tea.Msg {
	st, err := fetchStatus()
	if err != nil {
		return statusErrMsg{err: err}
	}
	return statusMsg(st)
}

func pollLater() tea.Cmd {
	return tea.Tick(watchPoll, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, pollStatus)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case statusMsg:
		m.status = engine.Status(msg)
		m.err = nil
		m.loaded = true
		return m, pollLater()

	case statusErrMsg:
		m.err = msg.err
		return m, pollLater()

	case pollTickMsg:
		return m, pollStatus

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m watchModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("%s daemon unreachable: %v\n\npress q to quit\n", m.spin.View(), m.err)
	}
	if !m.loaded {
		return m.spin.View() + " connecting...\n"
	}
	return indicator.Render(statusToState(m.status)) + "\n\npress q to quit\n"
}

func runWatch() error {
	_, err := tea.NewProgram(newWatchModel()).Run()
	return err
}
