package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the wizard TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	tab        key.Binding
	toggle     key.Binding
	mode       key.Binding
	allSection key.Binding
	allGlobal  key.Binding
	clear      key.Binding
	submit     key.Binding
	back       key.Binding
	other      key.Binding
	save       key.Binding
	guide      key.Binding
	open       key.Binding
	restart    key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
		toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "include/exclude")),
		allSection: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle section")),
		allGlobal:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "toggle all")),
		clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		other:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "other account")),
		save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		guide:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "guide")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.tab, k.toggle},
		{k.mode, k.allSection, k.allGlobal, k.clear},
		{k.submit, k.back, k.other, k.quit},
		{k.save, k.guide, k.open, k.restart},
	}
}
