// Package tui renders the countdown widget in the terminal using Bubble Tea.
//
// The model never touches the controller. It reads published steps from a
// production.ChannelPublisher and writes user commands to an
// extensibility.ChannelEventSource; the runtime loop owns everything in between.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/countdown/internal/extensibility"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8")).
			Bold(true)

	displayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3f3f46"))

	displayIdleStyle = displayStyle.Copy().
				Foreground(lipgloss.Color("#a1a1aa"))

	displayDoneStyle = displayStyle.Copy().
				Foreground(lipgloss.Color("#fca5a5"))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#52525b")).
				Strikethrough(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))
)

// ── Messages ─────────────────────────────────────────────────────

type stepMsg production.PublishedEvent

// closedMsg is delivered once the runtime has shut down and closed its publisher.
type closedMsg struct{}

func waitForStep(steps <-chan production.PublishedEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-steps
		if !ok {
			return closedMsg{}
		}
		return stepMsg(ev)
	}
}

// ── Model ────────────────────────────────────────────────────────

// Model is the Bubble Tea model of the widget.
type Model struct {
	title    string
	input    textinput.Model
	snapshot primitives.Countdown
	expired  bool
	notice   string
	width    int
	quitting bool

	steps    <-chan production.PublishedEvent
	commands *extensibility.ChannelEventSource
}

// New creates the model. initial is the state to show before the first step arrives.
func New(
	title string,
	initial primitives.Countdown,
	steps <-chan production.PublishedEvent,
	commands *extensibility.ChannelEventSource,
) Model {
	ti := textinput.New()
	ti.Prompt = "Duration (seconds): "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "e.g. 90"
	ti.CharLimit = 12
	ti.Width = 14
	ti.Focus()

	m := Model{
		title:    title,
		input:    ti,
		snapshot: initial,
		steps:    steps,
		commands: commands,
	}
	m.syncInput()

	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForStep(m.steps),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stepMsg:
		m.snapshot = msg.Step.After
		m.expired = msg.Step.Expired
		if msg.Step.Event.Type == primitives.EventSet && m.snapshot.Configured > 0 {
			m.input.SetValue(fmt.Sprint(m.snapshot.Configured))
		}
		m.syncInput()
		return m, waitForStep(m.steps)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.snapshot.Controls()
	m.notice = ""

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.send(primitives.NewEvent(primitives.EventTeardown, nil))
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if controls.SetEnabled {
			value := strings.TrimSpace(m.input.Value())
			if _, ok := primitives.ParseDuration(value); !ok {
				m.notice = fmt.Sprintf("%q is not a valid duration", value)
			}
			// invalid input is still sent; the controller ignores it
			m.send(primitives.SetEvent(value))
		}
		return m, nil

	case "s", " ", "space":
		if controls.StartEnabled {
			m.send(primitives.NewEvent(primitives.EventStart, nil))
		}
		return m, nil

	case "p":
		if controls.PauseEnabled {
			m.send(primitives.NewEvent(primitives.EventPause, nil))
		}
		return m, nil

	case "r":
		if controls.ResetEnabled {
			m.send(primitives.NewEvent(primitives.EventStop, nil))
		}
		return m, nil
	}

	if !controls.DurationEditable {
		return m, nil
	}

	// the field only takes digits and a decimal point
	if msg.Type == tea.KeyRunes && !numeric(msg.Runes) {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) send(evt primitives.Event) {
	if m.commands == nil {
		return
	}
	if !m.commands.Send(evt) {
		m.notice = "busy, try again"
	}
}

// syncInput enables the duration field only while the countdown is inactive.
func (m *Model) syncInput() {
	if m.snapshot.Controls().DurationEditable {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func numeric(runes []rune) bool {
	for _, r := range runes {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return len(runes) > 0
}

// Snapshot returns the countdown as last seen by the view.
func (m Model) Snapshot() primitives.Countdown {
	return m.snapshot
}

// ── View ─────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	c := m.snapshot
	controls := c.Controls()

	style := displayStyle
	switch {
	case m.expired:
		style = displayDoneStyle
	case !c.Active:
		style = displayIdleStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(style.Render(c.Display()))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(strings.Join([]string{
		button("enter", "Set", controls.SetEnabled),
		button("s", controls.StartLabel, controls.StartEnabled),
		button("p", "Pause", controls.PauseEnabled),
		button("r", "Reset", controls.ResetEnabled),
		button("q", "Quit", true),
	}, "  "))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(c.TimeLeft()))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	} else if m.expired {
		b.WriteString(noticeStyle.Render("Time's up!"))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render(hint(c)))
	b.WriteString("\n")

	return b.String()
}

func button(key, label string, enabled bool) string {
	text := fmt.Sprintf("[%s] %s", key, label)
	if !enabled {
		return buttonDisabledStyle.Render(text)
	}
	return buttonStyle.Render(text)
}

func hint(c primitives.Countdown) string {
	switch c.State() {
	case primitives.Running:
		return "running"
	case primitives.Paused:
		return "paused"
	}
	if !c.HasConfigured {
		return "type a duration and press enter"
	}
	return "ready"
}
