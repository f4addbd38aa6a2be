package testsupport

import (
	"context"
	"fmt"
	"testing"

	"rlviz/internal/schema"
	"rlviz/internal/store"
)

// GridStack builds a D-panel S×S stack with deterministic values so tests
// can assert exact round trips: value = panel*10000 + row*100 + col + t.
func GridStack(d, s, t int) *schema.PanelStack {
	ps := schema.NewPanelStack(d, s)
	for p := 0; p < d; p++ {
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				ps.Set(p, y, x, float64(p*10000+y*100+x+t))
			}
		}
	}
	return ps
}

// ColorFrame builds an h×w frame with a deterministic gradient.
func ColorFrame(h, w, t int) *schema.ColorFrame {
	f := schema.NewColorFrame(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			f.Pix[i] = uint8((x + t) % 256)
			f.Pix[i+1] = uint8((y + t) % 256)
			f.Pix[i+2] = uint8((x + y) % 256)
		}
	}
	return f
}

// Episode builds a steps-long episode for a grid attribute "obs" (4 panels
// of 6×6) and a text attribute "value".
func Episode(t testing.TB, steps int) (*schema.Schema, schema.EpisodeLog) {
	t.Helper()

	sc, err := schema.New(
		[]string{"obs", "value"},
		[]schema.Kind{schema.KindGrid, schema.KindText},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}

	log := make(schema.EpisodeLog, 0, steps)
	for i := 0; i < steps; i++ {
		log = append(log, schema.StepRecord{
			"obs":   GridStack(4, 6, i),
			"value": schema.NewText(fmt.Sprintf("v%d", i)),
		})
	}
	return sc, log
}

// MustWriteStore writes an episode to path and fails the test on error.
func MustWriteStore(t testing.TB, path string, sc *schema.Schema, log schema.EpisodeLog) {
	t.Helper()
	if err := store.Write(context.Background(), path, sc, log); err != nil {
		t.Fatalf("store.Write: %v", err)
	}
}

// MustLoadStore loads the store at path and registers cleanup.
func MustLoadStore(t testing.TB, path string) *store.Handle {
	t.Helper()
	handle, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	t.Cleanup(func() {
		_ = handle.Close()
	})
	return handle
}
