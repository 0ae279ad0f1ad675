// Package progress renders pipeline progress in the terminal, either as
// a live bubbletea display or as plain colored lines.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
)

// stepStatus is the display state of one pipeline stage.
type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepFailed
)

// step is one stage row in the progress display.
type step struct {
	name   string
	detail string
	status stepStatus
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

// eventMsg wraps a pipeline event for the bubbletea update loop.
type eventMsg pipeline.Event

// streamClosedMsg signals that the pipeline closed its event channel.
type streamClosedMsg struct{}

// Model is the bubbletea model for a pipeline run.
type Model struct {
	spinner  spinner.Model
	events   <-chan pipeline.Event
	steps    []step
	finished bool
	errText  string
	prURL    string
}

// NewModel creates a progress model consuming the given event stream.
func NewModel(events <-chan pipeline.Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		spinner: s,
		events:  events,
		steps: []step{
			{name: "Clone repository"},
			{name: "Analyze codebase"},
			{name: "Generate changes"},
			{name: "Validate & apply"},
			{name: "Commit"},
			{name: "Push"},
			{name: "Pull request"},
		},
	}
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// waitForEvent blocks on the next pipeline event.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Update handles spinner ticks, pipeline events, and quit keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(pipeline.Event(msg))
		if m.finished {
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

// stepIndex maps event types to their stage row.
func stepIndex(t pipeline.EventType) int {
	switch t {
	case pipeline.EventCloneStart, pipeline.EventCloneComplete:
		return 0
	case pipeline.EventAnalyzeStart, pipeline.EventAnalyzeComplete:
		return 1
	case pipeline.EventGenerateStart, pipeline.EventGenerateComplete:
		return 2
	case pipeline.EventApplyStart, pipeline.EventApplyComplete, pipeline.EventValidationFailed:
		return 3
	case pipeline.EventCommitStart, pipeline.EventCommitComplete:
		return 4
	case pipeline.EventPushStart, pipeline.EventPushComplete:
		return 5
	case pipeline.EventPRStart, pipeline.EventPRComplete:
		return 6
	default:
		return -1
	}
}

// apply folds one pipeline event into the display state.
func (m *Model) apply(event pipeline.Event) {
	i := stepIndex(event.Type)

	switch event.Type {
	case pipeline.EventCloneStart, pipeline.EventAnalyzeStart, pipeline.EventGenerateStart,
		pipeline.EventApplyStart, pipeline.EventCommitStart, pipeline.EventPushStart, pipeline.EventPRStart:
		m.steps[i].status = stepRunning
		m.steps[i].detail = event.Message

	case pipeline.EventCloneComplete, pipeline.EventAnalyzeComplete, pipeline.EventGenerateComplete,
		pipeline.EventApplyComplete, pipeline.EventCommitComplete, pipeline.EventPushComplete:
		m.steps[i].status = stepDone
		m.steps[i].detail = event.Message

	case pipeline.EventPRComplete:
		m.steps[i].status = stepDone
		m.steps[i].detail = event.Message
		m.prURL = event.Message

	case pipeline.EventValidationFailed:
		m.steps[i].status = stepFailed
		m.steps[i].detail = event.Message
		m.errText = event.Message
		m.finished = true

	case pipeline.EventError:
		m.errText = event.Message
		m.finished = true
		for j := range m.steps {
			if m.steps[j].status == stepRunning {
				m.steps[j].status = stepFailed
				m.steps[j].detail = event.Message
			}
		}

	case pipeline.EventDone:
		m.finished = true
	}
}

// View renders the stage list.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("zen-code"))
	sb.WriteString("\n\n")

	for _, s := range m.steps {
		var marker string
		switch s.status {
		case stepDone:
			marker = doneStyle.Render("✓")
		case stepFailed:
			marker = failedStyle.Render("✗")
		case stepRunning:
			marker = m.spinner.View()
		default:
			marker = pendingStyle.Render("•")
		}

		fmt.Fprintf(&sb, " %s %s", marker, s.name)
		if s.detail != "" && s.status != stepPending {
			sb.WriteString(detailStyle.Render(" — " + truncate(s.detail, 60)))
		}
		sb.WriteString("\n")
	}

	if m.errText != "" {
		sb.WriteString("\n")
		sb.WriteString(failedStyle.Render(truncate(m.errText, 200)))
		sb.WriteString("\n")
	}
	if m.prURL != "" {
		sb.WriteString("\n")
		sb.WriteString(doneStyle.Render("PR: " + m.prURL))
		sb.WriteString("\n")
	}
	return sb.String()
}

// PRURL returns the pull request URL once the run completed.
func (m Model) PRURL() string {
	return m.prURL
}

// Err returns the terminal error text, empty on success.
func (m Model) Err() string {
	return m.errText
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
