package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	addItem       key.Binding
	itemInfo      key.Binding
	activity      key.Binding
	nextBoard     key.Binding
	moveItemLeft  key.Binding
	moveItemRight key.Binding
	moveItemUp    key.Binding
	moveItemDown  key.Binding
	cancel        key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "card up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "card down")),
		addItem:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		itemInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "card info")),
		activity:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "move history")),
		nextBoard:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "next board")),
		moveItemLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		moveItemRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
		moveItemUp:    key.NewBinding(key.WithKeys("K", "shift+k"), key.WithHelp("K", "move card up")),
		moveItemDown:  key.NewBinding(key.WithKeys("J", "shift+j"), key.WithHelp("J", "move card down")),
		cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag / close")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addItem, k.itemInfo, k.moveItemLeft, k.moveItemRight, k.activity, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addItem, k.itemInfo, k.activity, k.nextBoard, k.toggleHelp, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.moveItemLeft, k.moveItemRight, k.moveItemUp, k.moveItemDown, k.cancel},
	}
}
