package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Reset     key.Binding
	Sidebar   key.Binding
	Open      key.Binding
	Quakes    key.Binding
	Weather   key.Binding
	Dashboard key.Binding
	Export    key.Binding
	Query     key.Binding
	Paste     key.Binding
	Attrs     key.Binding
	Inspect   key.Binding
	Layer     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dashboard, k.Quakes, k.Weather, k.Query, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Sidebar, k.Open, k.Paste, k.Layer, k.Attrs, k.Inspect},
		{k.Dashboard, k.Export, k.Quakes, k.Weather, k.Query},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "pan up")),
	Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "pan down")),
	Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "pan left")),
	Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "pan right")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset view")),
	Sidebar:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "files")),
	Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open file")),
	Quakes:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "earthquakes")),
	Weather:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "weather")),
	Dashboard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
	Export:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export charts")),
	Query:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "ask")),
	Paste:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paste WKT")),
	Attrs:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attributes")),
	Inspect:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inspect center")),
	Layer: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "toggle layer"),
	),
	Help: key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q/ctrl+c", "quit")),
}
