package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	cancel     key.Binding
	info       key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	nudgeUp    key.Binding
	nudgeDown  key.Binding
	shiftLeft  key.Binding
	shiftRight key.Binding
	copyTitle  key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		info:       key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "item info")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "pane left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "pane right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "item up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "item down")),
		nudgeUp:    key.NewBinding(key.WithKeys("K", "shift+k", "shift+up"), key.WithHelp("K", "move item up")),
		nudgeDown:  key.NewBinding(key.WithKeys("J", "shift+j", "shift+down"), key.WithHelp("J", "move item down")),
		shiftLeft:  key.NewBinding(key.WithKeys("H", "shift+h", "shift+left"), key.WithHelp("H", "move task left")),
		shiftRight: key.NewBinding(key.WithKeys("L", "shift+l", "shift+right"), key.WithHelp("L", "move task right")),
		copyTitle:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nudgeUp, k.nudgeDown, k.shiftLeft, k.shiftRight, k.reload, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.info},
		{k.nudgeUp, k.nudgeDown, k.shiftLeft, k.shiftRight, k.cancel},
		{k.copyTitle, k.reload, k.toggleHelp, k.quit},
	}
}
