package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings of the URL table.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	SelectAll key.Binding
	Crawl     key.Binding
	Reanalyze key.Binding
	Delete    key.Binding
	Add       key.Binding
	Filter    key.Binding
	SortNext  key.Binding
	SortPrev  key.Binding
	SortFlip  key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Bigger    key.Binding
	Smaller   key.Binding
	Detail    key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select page"),
		),
		Crawl: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "start/stop"),
		),
		Reanalyze: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reanalyze selected"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete selected"),
		),
		Add: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "add url"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		SortNext: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "sort column"),
		),
		SortPrev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "sort column"),
		),
		SortFlip: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort order"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup"),
			key.WithHelp("p", "prev page"),
		),
		Bigger: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "page size"),
		),
		Smaller: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "page size"),
		),
		Detail: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "details"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r", "R"),
			key.WithHelp("R", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Crawl, k.Reanalyze, k.Delete, k.Filter, k.NextPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.SelectAll, k.Detail},
		{k.Crawl, k.Reanalyze, k.Delete, k.Add, k.Refresh},
		{k.Filter, k.SortNext, k.SortPrev, k.SortFlip},
		{k.NextPage, k.PrevPage, k.Bigger, k.Smaller},
		{k.Help, k.Quit},
	}
}
