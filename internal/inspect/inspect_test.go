package inspect_test

import (
	"errors"
	"testing"

	"rlviz/internal/inspect"
	"rlviz/internal/schema"
	"rlviz/internal/testsupport"
)

func TestCellAt(t *testing.T) {
	cases := []struct {
		x, y         float64
		s            int
		wantX, wantY int
	}{
		{0.5, 0.5, 10, 5, 5},
		{0.99, 0.0, 10, 9, 0},
		{0.0, 0.0, 10, 0, 0},
		{1.0, 1.0, 10, 9, 9}, // exactly 1.0 clamps to the last cell
		{0.34, 0.67, 3, 1, 2},
		{-0.1, 0.5, 4, 0, 2}, // out-of-range input clamps rather than panicking
	}
	for _, tc := range cases {
		gotX, gotY := inspect.CellAt(tc.x, tc.y, tc.s)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Fatalf("CellAt(%v,%v,%d) = (%d,%d), want (%d,%d)",
				tc.x, tc.y, tc.s, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestCrossSectionOrderAndValues(t *testing.T) {
	ps := testsupport.GridStack(4, 10, 0)
	vec, err := inspect.CrossSection(ps, 0.55, 0.25)
	if err != nil {
		t.Fatalf("CrossSection failed: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("cross-section length = %d, want 4", len(vec))
	}
	// Click maps to cell (5, 2); GridStack values are p*10000 + y*100 + x.
	for p := 0; p < 4; p++ {
		want := float64(p*10000 + 2*100 + 5)
		if vec[p] != want {
			t.Fatalf("vec[%d] = %v, want %v", p, vec[p], want)
		}
	}
}

func TestCrossSectionNoData(t *testing.T) {
	if _, err := inspect.CrossSection(nil, 0.5, 0.5); !errors.Is(err, inspect.ErrNoData) {
		t.Fatalf("expected ErrNoData for nil stack, got %v", err)
	}
	empty := &schema.PanelStack{}
	if _, err := inspect.CrossSection(empty, 0.5, 0.5); !errors.Is(err, inspect.ErrNoData) {
		t.Fatalf("expected ErrNoData for empty stack, got %v", err)
	}
}
