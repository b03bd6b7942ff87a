package models

import (
	"fmt"

	"github.com/desertthunder/yard/internal/shared"
)

// DefaultGrid is the 5x5 yard used by the placement form.
var DefaultGrid = Grid{Rows: 5, Cols: 5}

// Grid is the yard layout. Positions are 1-based.
type Grid struct {
	Rows int
	Cols int
}

// Cell is one slot of the grid with the containers placed there, if any.
type Cell struct {
	Row        int
	Col        int
	Containers []ContainerView
}

// Occupied reports whether at least one container sits in the cell.
func (c Cell) Occupied() bool { return len(c.Containers) > 0 }

// Label returns the first container number in the cell, with a count suffix when several share it.
func (c Cell) Label() string {
	switch len(c.Containers) {
	case 0:
		return ""
	case 1:
		return c.Containers[0].Number
	default:
		return fmt.Sprintf("%s +%d", c.Containers[0].Number, len(c.Containers)-1)
	}
}

// Contains reports whether (row, col) lies inside the grid.
func (g Grid) Contains(row, col int) bool {
	return row >= 1 && row <= g.Rows && col >= 1 && col <= g.Cols
}

// CheckBounds returns a validation error when (row, col) is outside the grid.
func (g Grid) CheckBounds(row, col int) error {
	if !g.Contains(row, col) {
		return fmt.Errorf("%w: position (%d, %d) is outside the %dx%d yard", shared.ErrValidation, row, col, g.Rows, g.Cols)
	}
	return nil
}

// RowNumbers returns 1..Rows for template ranges.
func (g Grid) RowNumbers() []int { return sequence(g.Rows) }

// ColNumbers returns 1..Cols for template ranges.
func (g Grid) ColNumbers() []int { return sequence(g.Cols) }

// Layout places containers on the grid, row-major. Containers outside the grid are skipped.
func (g Grid) Layout(containers []*Container) [][]Cell {
	cells := make([][]Cell, g.Rows)
	for r := range cells {
		cells[r] = make([]Cell, g.Cols)
		for c := range cells[r] {
			cells[r][c] = Cell{Row: r + 1, Col: c + 1}
		}
	}

	for _, ctr := range containers {
		if !g.Contains(ctr.RowPos(), ctr.ColPos()) {
			continue
		}
		cell := &cells[ctr.RowPos()-1][ctr.ColPos()-1]
		cell.Containers = append(cell.Containers, ctr.View())
	}
	return cells
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
