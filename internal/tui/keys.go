package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	esc      key.Binding
	tab      key.Binding
	quit     key.Binding
	loadMore key.Binding
	favorite key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	sort     key.Binding
	search   key.Binding
	copy     key.Binding
	recovery key.Binding
	account  key.Binding
	answer   key.Binding
	download key.Binding
	confirm  key.Binding
	deny     key.Binding
	details  key.Binding
}

var keys = keyMap{
	up:       key.NewBinding(key.WithKeys("up", "k")),
	down:     key.NewBinding(key.WithKeys("down", "j")),
	enter:    key.NewBinding(key.WithKeys("enter")),
	esc:      key.NewBinding(key.WithKeys("esc")),
	tab:      key.NewBinding(key.WithKeys("tab")),
	quit:     key.NewBinding(key.WithKeys("q")),
	loadMore: key.NewBinding(key.WithKeys("r")),
	favorite: key.NewBinding(key.WithKeys("f")),
	moveUp:   key.NewBinding(key.WithKeys("K")),
	moveDown: key.NewBinding(key.WithKeys("J")),
	sort:     key.NewBinding(key.WithKeys("s")),
	search:   key.NewBinding(key.WithKeys("/")),
	copy:     key.NewBinding(key.WithKeys("y")),
	recovery: key.NewBinding(key.WithKeys("v")),
	account:  key.NewBinding(key.WithKeys("a")),
	answer:   key.NewBinding(key.WithKeys("e")),
	download: key.NewBinding(key.WithKeys("d")),
	confirm:  key.NewBinding(key.WithKeys("y")),
	deny:     key.NewBinding(key.WithKeys("n")),
	details:  key.NewBinding(key.WithKeys("i")),
}
