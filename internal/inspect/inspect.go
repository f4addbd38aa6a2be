// Package inspect maps normalized click positions over a rendered composite
// into panel-stack cells and extracts cross-section vectors. The display
// attribute and the inspected grid attribute share the same normalized
// coordinate space regardless of panel count, so a click carries over
// between them directly.
package inspect

import (
	"errors"
	"math"

	"rlviz/internal/schema"
)

// ErrNoData reports an inspection against an absent or empty panel stack.
// The caller should surface the condition and render nothing rather than
// failing silently.
var ErrNoData = errors.New("inspect: no panel data at the current timestep")

// CellAt converts a normalized coordinate in [0, 1] to a cell index within
// an S×S panel. Coordinates at exactly 1.0 clamp to the last cell.
func CellAt(x, y float64, s int) (cellX, cellY int) {
	cellX = clamp(int(math.Floor(x*float64(s))), s)
	cellY = clamp(int(math.Floor(y*float64(s))), s)
	return cellX, cellY
}

func clamp(v, s int) int {
	if v < 0 {
		return 0
	}
	if v >= s {
		return s - 1
	}
	return v
}

// CrossSection extracts the vector of values at the clicked cell across all
// panels of ps, in panel order.
func CrossSection(ps *schema.PanelStack, x, y float64) ([]float64, error) {
	if ps == nil || ps.D == 0 {
		return nil, ErrNoData
	}
	cellX, cellY := CellAt(x, y, ps.S)
	out := make([]float64, ps.D)
	for d := 0; d < ps.D; d++ {
		out[d] = ps.At(d, cellY, cellX)
	}
	return out, nil
}
