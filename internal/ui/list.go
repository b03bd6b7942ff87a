package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/yard/internal/models"
)

var _ list.Item = containerItem{}

// containerItem wraps [models.Container] to implement [list.Item].
type containerItem struct {
	container *models.Container
}

func (i containerItem) FilterValue() string { return i.container.Number() }
func (i containerItem) Title() string       { return i.container.Number() }
func (i containerItem) Description() string {
	return fmt.Sprintf("%s → %s • row %d, col %d • %s",
		i.container.Origin(), i.container.Destination(), i.container.RowPos(), i.container.ColPos(), i.container.Owner())
}

func containerItems(containers []*models.Container) []list.Item {
	items := make([]list.Item, len(containers))
	for i, c := range containers {
		items[i] = containerItem{container: c}
	}
	return items
}
