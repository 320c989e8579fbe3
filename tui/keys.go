package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause       key.Binding
	RotateLeft  key.Binding
	RotateRight key.Binding
	Mode        key.Binding
	Export      key.Binding
	Quit        key.Binding
}

func bind(help string, keys ...string) key.Binding {
	label := keys[0]
	if label == " " {
		label = "space"
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, help))
}

func defaultKeys() keyMap {
	return keyMap{
		Pause:       bind("pause", " ", "p"),
		RotateLeft:  bind("rotate left", "[", "left"),
		RotateRight: bind("rotate right", "]", "right"),
		Mode:        bind("key colors", "m"),
		Export:      bind("export png", "e"),
		Quit:        bind("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.RotateLeft, k.RotateRight, k.Mode, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
