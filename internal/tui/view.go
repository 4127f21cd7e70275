package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/quadplot/pkg/session"
)

// Style definitions
var (
	primaryColor = lipgloss.Color("#3b82f6")
	successColor = lipgloss.Color("#10b981")
	warningColor = lipgloss.Color("#f59e0b")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	focusedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	statusStyle = lipgloss.NewStyle().
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.inputLine())
	b.WriteByte('\n')
	b.WriteString(m.canvas.String())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) inputLine() string {
	parts := make([]string, 0, len(m.inputs)+1)
	for _, in := range m.inputs {
		parts = append(parts, in.View())
	}
	plotLabel := mutedStyle.Render("[plot]")
	if m.focus == focusCanvas {
		plotLabel = focusedStyle.Render("[plot]")
	}
	parts = append(parts, plotLabel)
	return strings.Join(parts, "  ")
}

// statusLine renders "Status: ..." colored by connection health.
func (m Model) statusLine() string {
	status := m.session.Status()
	style := statusStyle
	switch {
	case strings.HasPrefix(status, session.StatusError), status == session.StatusDisconnected:
		style = style.Foreground(errorColor)
	case status == session.StatusConnected:
		style = style.Foreground(successColor)
	default:
		style = style.Foreground(warningColor)
	}
	line := style.Render("Status: " + status)
	if m.notice != "" {
		line += "  " + mutedStyle.Render(m.notice)
	}
	return line
}

func (m Model) helpLine() string {
	bindings := m.keys.inputHelp()
	if m.focus == focusCanvas {
		bindings = m.keys.canvasHelp()
	}
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
