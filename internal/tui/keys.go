package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
	Help   key.Binding

	Scan    key.Binding
	Deauth  key.Binding
	Evil    key.Binding
	Beacon  key.Binding
	StopAll key.Binding
	BLEScan key.Binding
	Monitor key.Binding
	Detect  key.Binding
	Save    key.Binding
	Clear   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "right"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace", "left"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan"),
		),
		Deauth: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "deauth"),
		),
		Evil: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "evil twin"),
		),
		Beacon: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "beacon"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop all"),
		),
		BLEScan: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "BLE scan"),
		),
		Monitor: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "monitor"),
		),
		Detect: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "detect"),
		),
		Save: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save scan"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear console"),
		),
	}
}

// ShortHelp returns keybindings to show in the help view (horizontal).
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scan, k.Deauth, k.Evil, k.StopAll, k.BLEScan, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.Scan, k.Deauth, k.Evil, k.Beacon, k.Monitor},
		{k.BLEScan, k.StopAll, k.Detect, k.Save, k.Clear},
		{k.Help, k.Quit},
	}
}
