// Package tui is the interactive terminal client: a plot drawn into terminal
// cells, two input fields and a status line.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/plot"
	"github.com/recera/quadplot/pkg/render"
	"github.com/recera/quadplot/pkg/session"
)

// Focus targets, cycled with tab.
const (
	focusNumber = iota
	focusInvolutions
	focusCanvas
	focusCount
)

// canvasTop is the terminal row the plot starts on; the input line sits above.
const canvasTop = 1

// Messages marshalled in from other goroutines.
type (
	// StateMsg carries a connection state change.
	StateMsg struct{ State live.ConnectionState }

	// PeerMsg carries one decoded peer message.
	PeerMsg struct{ Msg live.Message }

	// ThemeMsg carries a reloaded theme.
	ThemeMsg struct{ Theme render.Theme }
)

// Model represents the TUI application state
type Model struct {
	session *session.Session
	canvas  *render.CellCanvas
	keys    KeyMap

	// Window dimensions
	width  int
	height int

	inputs []textinput.Model
	focus  int

	notice   string
	quitting bool
}

// NewModel creates a model drawing s onto canvas. The session must have been
// created with the canvas pixel size.
func NewModel(s *session.Session, canvas *render.CellCanvas) Model {
	number := textinput.New()
	number.Prompt = "Number: "
	number.Placeholder = "4"
	number.CharLimit = 24
	number.Width = 12
	number.Focus()

	involutions := textinput.New()
	involutions.Prompt = "Involutions: "
	involutions.Placeholder = "3"
	involutions.CharLimit = 12
	involutions.Width = 8

	s.Attach(canvas)
	return Model{
		session: s,
		canvas:  canvas,
		keys:    DefaultKeyMap,
		inputs:  []textinput.Model{number, involutions},
		focus:   focusNumber,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateMsg:
		m.session.SetConnectionState(msg.State)
		return m, nil

	case PeerMsg:
		m.session.Apply(msg.Msg)
		return m, nil

	case ThemeMsg:
		m.session.SetTheme(msg.Theme)
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Tab) {
			return m, m.cycleFocus(msg.String() == "shift+tab")
		}
		if key.Matches(msg, m.keys.Calculate) {
			m.calculate()
			return m, nil
		}
		if m.focus == focusCanvas {
			return m, m.handleCanvasKeys(msg)
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) cycleFocus(back bool) tea.Cmd {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	if back {
		m.focus = (m.focus + focusCount - 1) % focusCount
	} else {
		m.focus = (m.focus + 1) % focusCount
	}
	if m.focus < len(m.inputs) {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

func (m *Model) calculate() {
	if m.session.Calculate(m.inputs[focusNumber].Value(), m.inputs[focusInvolutions].Value()) {
		m.notice = ""
	} else {
		m.notice = "not sent"
	}
}

// handleCanvasKeys handles keyboard input while the plot has focus
func (m *Model) handleCanvasKeys(msg tea.KeyMsg) tea.Cmd {
	stepX, stepY := 4*m.canvas.CellWidth, 2*m.canvas.CellHeight
	cx, cy := m.canvasCenter()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.session.Pan(0, stepY)
	case key.Matches(msg, m.keys.Down):
		m.session.Pan(0, -stepY)
	case key.Matches(msg, m.keys.Left):
		m.session.Pan(stepX, 0)
	case key.Matches(msg, m.keys.Right):
		m.session.Pan(-stepX, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		m.session.Wheel(cx, cy, plot.ZoomIn)
	case key.Matches(msg, m.keys.ZoomOut):
		m.session.Wheel(cx, cy, plot.ZoomOut)
	case key.Matches(msg, m.keys.Reset):
		m.session.ResetView()
	case key.Matches(msg, m.keys.Delete):
		m.notice = fmt.Sprintf("deleted %d", m.session.DeleteSelected())
	case key.Matches(msg, m.keys.Highlight):
		m.session.HighlightSelected()
	case key.Matches(msg, m.keys.Deselect):
		m.session.DeselectAll()
	case key.Matches(msg, m.keys.Log):
		m.notice = fmt.Sprintf("logged %d selected", len(m.session.SelectedDots()))
	}
	return nil
}

// handleMouse maps terminal cells to pixels at the cell center. Presses
// outside the plot are ignored; moves and releases are always forwarded so a
// drag can end anywhere.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X, msg.Y-canvasTop
	px, py := m.canvas.CellCenter(col, row)
	inside := col >= 0 && row >= 0 && col < m.canvas.Cols && row < m.canvas.Rows

	switch {
	case msg.Button == tea.MouseButtonWheelUp && inside:
		m.session.Wheel(px, py, plot.ZoomIn)
	case msg.Button == tea.MouseButtonWheelDown && inside:
		m.session.Wheel(px, py, plot.ZoomOut)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		m.focusCanvas()
		m.session.PointerDown(px, py)
	case msg.Action == tea.MouseActionMotion:
		m.session.PointerMove(px, py)
	case msg.Action == tea.MouseActionRelease:
		m.session.PointerUp(px, py)
	}
}

func (m *Model) focusCanvas() {
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	m.focus = focusCanvas
}

// canvasCenter returns the pixel at the middle of the plot.
func (m *Model) canvasCenter() (float64, float64) {
	w, h := m.session.Size()
	return float64(w) / 2, float64(h) / 2
}

// Session returns the session driven by the model.
func (m Model) Session() *session.Session { return m.session }

// Bind forwards client callbacks into the program loop so the session is
// only touched from Update.
func Bind(p *tea.Program, c *live.Client) {
	c.OnState(func(s live.ConnectionState) { p.Send(StateMsg{State: s}) })
	c.OnMessage(func(msg live.Message) { p.Send(PeerMsg{Msg: msg}) })
}
