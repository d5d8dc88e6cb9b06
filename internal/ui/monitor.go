// Package ui renders a live terminal monitor for a running automation.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	spinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	lipgloss "github.com/charmbracelet/lipgloss"
	truncate "github.com/muesli/reflow/truncate"

	domain "github.com/berth-automation/berth/internal/domain"
	events "github.com/berth-automation/berth/internal/events"
)

const maxLogLines = 8

// Stopper raises the stop signal
type Stopper interface {
	Set(reason string)
}

// MonitorOptions carries static run details shown in the header
type MonitorOptions struct {
	RunID   string
	Backend string
	DryRun  bool
}

type eventMsg events.Event

type closedMsg struct{}

// Monitor is a bubbletea model following the event stream of one run
type Monitor struct {
	events  <-chan events.Event
	stopper Stopper
	opts    MonitorOptions
	theme   Theme
	spinner spinner.Model

	phase      string
	cycle      int
	iterations int
	reading    string
	status     string
	stopping   bool
	done       bool
	lines      []string
	width      int
	started    time.Time
}

// NewMonitor creates a monitor reading from ch
func NewMonitor(ch <-chan events.Event, stopper Stopper, opts MonitorOptions) *Monitor {
	theme := DefaultTheme()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner
	return &Monitor{
		events:  ch,
		stopper: stopper,
		opts:    opts,
		theme:   theme,
		spinner: s,
		status:  "Starting",
		width:   80,
		started: time.Now(),
	}
}

func (m *Monitor) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(e)
	}
}

// Init starts the spinner and the event pump
func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// Update handles keys, resizes and run events
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				m.status = "Stopping after the current step"
				m.stopper.Set("monitor key " + msg.String())
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case eventMsg:
		m.apply(events.Event(msg))
		if m.done {
			return m, tea.Quit
		}
		return m, m.waitForEvent()

	case closedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Monitor) apply(e events.Event) {
	if e.Phase != "" {
		m.phase = e.Phase
	}
	if e.Cycle > 0 {
		m.cycle = e.Cycle
	}

	switch e.Type {
	case events.TypeRunStarted:
		m.status = "Running"
	case events.TypePhaseStarted:
		m.iterations = 0
		m.status = "Checking " + e.Phase
	case events.TypePoll:
		if e.Reading != nil {
			m.reading = formatReading(*e.Reading)
		}
		return
	case events.TypePhaseSkipped:
		m.status = "Skipped " + e.Phase
	case events.TypeCycleFinished:
		m.status = fmt.Sprintf("Cycle %d finished", e.Cycle)
	case events.TypeDispatched:
		m.iterations = e.Iteration
		m.status = fmt.Sprintf("Dispatched %s #%d", e.Phase, e.Iteration)
	case events.TypeGateFailed:
		m.status = e.Message
	case events.TypePhaseFinished:
		m.status = fmt.Sprintf("%s finished (%s)", e.Phase, e.Poll)
	case events.TypeStopped:
		m.status = "Stopped"
		m.done = true
	case events.TypeFatal:
		m.status = "Failed: " + e.Error
		m.done = true
	case events.TypeFinished:
		m.status = "Finished"
		m.done = true
	}

	m.lines = append(m.lines, fmt.Sprintf("%s %s", e.Time.Format("15:04:05"), m.status))
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func formatReading(r domain.Reading) string {
	if !r.HasPair {
		if r.Text == "" {
			return r.Region + ": no text"
		}
		return fmt.Sprintf("%s: %q (no pair)", r.Region, r.Text)
	}
	s := fmt.Sprintf("%s: %d/%d", r.Region, r.Pair.Left, r.Pair.Right)
	if r.Corrected {
		s += " (6/9 corrected)"
	}
	return s
}

// View renders the monitor
func (m *Monitor) View() string {
	var b strings.Builder

	header := "berth"
	if m.opts.DryRun {
		header += " (dry run)"
	}
	b.WriteString(m.theme.Title.Render(header))
	b.WriteString(" ")
	b.WriteString(m.theme.Dim.Render(fmt.Sprintf("run %s  backend %s  up %s",
		m.opts.RunID, m.opts.Backend, time.Since(m.started).Truncate(time.Second))))
	b.WriteString("\n\n")

	indicator := m.spinner.View()
	if m.done {
		indicator = " "
	}
	statusStyle := m.theme.Status
	if strings.HasPrefix(m.status, "Failed") {
		statusStyle = m.theme.Error
	}
	b.WriteString(indicator + " " + statusStyle.Render(m.fit(m.status)) + "\n")

	b.WriteString(m.theme.Label.Render("phase     ") + valueOr(m.phase, "-") + "\n")
	b.WriteString(m.theme.Label.Render("cycle     ") + fmt.Sprintf("%d", m.cycle) + "\n")
	b.WriteString(m.theme.Label.Render("dispatch  ") + fmt.Sprintf("%d", m.iterations) + "\n")
	b.WriteString(m.theme.Label.Render("reading   ") + m.fit(valueOr(m.reading, "-")) + "\n\n")

	for _, line := range m.lines {
		b.WriteString(m.theme.Dim.Render(m.fit(line)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("esc/q stop"))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m *Monitor) fit(s string) string {
	if m.width <= 12 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width-12), "…")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Run shows the monitor until the run ends, ctx is cancelled, or the
// terminal goes away
func Run(ctx context.Context, m *Monitor) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
