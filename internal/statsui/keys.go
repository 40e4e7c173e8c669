package statsui

import "github.com/charmbracelet/bubbles/key"

type browseKeys struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	Wider    key.Binding
	Narrower key.Binding
	Filter   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.PrevTab, k.Narrower, k.Wider, k.Filter, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

type filterKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Apply  key.Binding
	Cancel key.Binding
}

func (k filterKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Apply, k.Cancel}
}

func (k filterKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var forceQuit = key.NewBinding(key.WithKeys("ctrl+c"))

func defaultBrowseKeys() browseKeys {
	return browseKeys{
		NextTab:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev tab")),
		Wider:    key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("=", "wider window")),
		Narrower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrower window")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func defaultFilterKeys() filterKeys {
	return filterKeys{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
