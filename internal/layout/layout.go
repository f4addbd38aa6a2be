package layout

import (
	"fmt"
	"image"
	"math"

	"rlviz/internal/config"
)

// Grid describes a computed panel tiling: Cols×Rows cells of Cell pixels,
// with Spacing pixels between cells only.
type Grid struct {
	Cols, Rows int
	Cell       int
	Spacing    int
}

// Compute tiles d panels into a w×h box. Columns grow before rows, giving
// the smallest near-square grid with cols*rows >= d; cells are square and
// sized to fit both axes. Deterministic for a given d: 5 → 2×3, 7 → 2×4,
// 10 → 3×4.
func Compute(d, w, h, spacing int) (Grid, error) {
	if d <= 0 {
		return Grid{}, fmt.Errorf("layout: panel count must be positive, got %d", d)
	}
	if spacing < 0 {
		return Grid{}, fmt.Errorf("layout: spacing must not be negative, got %d", spacing)
	}

	cols := int(math.Floor(math.Sqrt(float64(d))))
	if cols < 1 {
		cols = 1
	}
	rows := ceilDiv(d, cols)
	for cols*rows < d {
		cols++
		rows = ceilDiv(d, cols)
	}

	cellW := (w - (cols-1)*spacing) / cols
	cellH := (h - (rows-1)*spacing) / rows
	cell := cellW
	if cellH < cell {
		cell = cellH
	}
	if cell < 0 {
		cell = 0
	}

	return Grid{Cols: cols, Rows: rows, Cell: cell, Spacing: spacing}, nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// Position returns panel i's row-major cell coordinates.
func (g Grid) Position(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// CellRect returns panel i's pixel bounds within the composite.
func (g Grid) CellRect(i int) image.Rectangle {
	row, col := g.Position(i)
	x := col * (g.Cell + g.Spacing)
	y := row * (g.Cell + g.Spacing)
	return image.Rect(x, y, x+g.Cell, y+g.Cell)
}

// Bounds returns the pixel size of the full composite.
func (g Grid) Bounds() image.Rectangle {
	w := g.Cols*g.Cell + (g.Cols-1)*g.Spacing
	h := g.Rows*g.Cell + (g.Rows-1)*g.Spacing
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return image.Rect(0, 0, w, h)
}

// SplitHeight resolves the configurable policy for dividing container
// height across n concurrently displayed grid attributes.
func SplitHeight(total, n int, policy string) int {
	if n <= 1 || policy == config.HeightPolicyPerAttribute {
		return total
	}
	return total / n
}
