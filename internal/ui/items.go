package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/m3usift/m3usift/internal/catalog"
)

var _ list.Item = categoryItem{}

// categoryItem wraps [catalog.Category] with its selection state to
// implement [list.Item].
type categoryItem struct {
	category catalog.Category
	selected bool
}

func (i categoryItem) FilterValue() string { return i.category.Name }

func (i categoryItem) Title() string {
	box := "[ ]"
	if i.selected {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s", box, i.category.Name)
}

func (i categoryItem) Description() string {
	return fmt.Sprintf("id %s", i.category.ID)
}
