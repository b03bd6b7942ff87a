package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/yard/internal/models"
)

// renderGrid draws the yard with one bordered box per slot, numbered along the top and left edges.
func renderGrid(cells [][]models.Cell) string {
	if len(cells) == 0 {
		return ""
	}

	width := 7
	for _, row := range cells {
		for _, cell := range row {
			width = max(width, lipgloss.Width(cell.Label()))
		}
	}

	header := []string{lipgloss.NewStyle().Width(4).Render("")}
	for c := range cells[0] {
		header = append(header, styles.label.Width(width+2).Align(lipgloss.Center).Render(fmt.Sprint(c+1)))
	}

	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	for r, row := range cells {
		boxes := []string{styles.label.Width(4).PaddingTop(1).Render(fmt.Sprintf("%d", r+1))}
		for _, cell := range row {
			if cell.Occupied() {
				boxes = append(boxes, styles.occupied.Width(width).Render(cell.Label()))
			} else {
				boxes = append(boxes, styles.empty.Width(width).Render("·"))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func occupiedSlots(cells [][]models.Cell) int {
	n := 0
	for _, row := range cells {
		for _, cell := range row {
			if cell.Occupied() {
				n++
			}
		}
	}
	return n
}
