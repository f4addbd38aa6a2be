package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"rlviz/internal/schema"
)

// EncodeValue converts a decoded store value into its JSON wire form.
func EncodeValue(v schema.Value) (json.RawMessage, error) {
	switch val := v.(type) {
	case *schema.ColorFrame:
		encoded, err := encodeColorPNG(val)
		if err != nil {
			return nil, err
		}
		return json.Marshal(encoded)
	case *schema.PanelStack:
		panels := make([][][]float64, val.D)
		for d := 0; d < val.D; d++ {
			panels[d] = val.Panel(d)
		}
		return json.Marshal(panels)
	case *schema.Text:
		if val.List {
			return json.Marshal(val.Values)
		}
		return json.Marshal(val.Scalar())
	}
	return nil, fmt.Errorf("encode: unsupported value kind %q", v.Kind())
}

// encodeColorPNG compresses a frame to PNG and wraps it in base64 for
// textual transport. PNG here is a transport choice; the store itself keeps
// raw pixels.
func encodeColorPNG(f *schema.ColorFrame) (string, error) {
	img := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			r, g, b := f.RGBAt(y, x)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
