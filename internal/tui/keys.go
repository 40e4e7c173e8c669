package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle      key.Binding
	Stop        key.Binding
	Rewind      key.Binding
	Faster      key.Binding
	Slower      key.Binding
	MoreSpacing key.Binding
	LessSpacing key.Binding
	Lang        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Rewind:      key.NewBinding(key.WithKeys("r", "left"), key.WithHelp("r", "rewind")),
		Faster:      key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+", "faster")),
		Slower:      key.NewBinding(key.WithKeys("-", "_", "down"), key.WithHelp("-", "slower")),
		MoreSpacing: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "more line height")),
		LessSpacing: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "less line height")),
		Lang:        key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
		Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
