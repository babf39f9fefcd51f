package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Increase key.Binding
	Decrease key.Binding
	Done     key.Binding
	Add      key.Binding
	Delete   key.Binding
	Mine     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Enter    key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Increase: key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "progress +10")),
	Decrease: key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "progress -10")),
	Done:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add subtask (admin)")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete (admin)")),
	Mine:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "only my tasks")),
	Refresh:  key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// helpBindings is the order keys are listed in the help screen
var helpBindings = []key.Binding{
	keys.Up, keys.Down, keys.Increase, keys.Decrease, keys.Done,
	keys.Add, keys.Delete, keys.Mine, keys.Refresh, keys.Help, keys.Quit,
}
