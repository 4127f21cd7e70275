package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Reset     key.Binding
	Delete    key.Binding
	Highlight key.Binding
	Deselect  key.Binding
	Log       key.Binding
	Calculate key.Binding
	Tab       key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "pan up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "pan down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "pan left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "pan right"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r", "0"),
		key.WithHelp("r", "reset view"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "delete", "backspace"),
		key.WithHelp("x", "delete selected"),
	),
	Highlight: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "star selected"),
	),
	Deselect: key.NewBinding(
		key.WithKeys("esc", "u"),
		key.WithHelp("esc", "deselect"),
	),
	Log: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "log selected"),
	),
	Calculate: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "calculate"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// canvasHelp lists the bindings shown under the plot.
func (k KeyMap) canvasHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Reset, k.Delete, k.Highlight, k.Deselect, k.Log, k.Tab, k.Quit}
}

func (k KeyMap) inputHelp() []key.Binding {
	return []key.Binding{k.Calculate, k.Tab}
}
