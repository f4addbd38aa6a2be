package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"rlviz/internal/schema"
)

// shape records the per-attribute value dimensions, constant across all
// timesteps of one attribute.
type shape struct {
	H int `json:"h,omitempty"`
	W int `json:"w,omitempty"`
	D int `json:"d,omitempty"`
	S int `json:"s,omitempty"`
	// List marks a text attribute carrying string sequences rather than
	// scalars.
	List bool `json:"list,omitempty"`
}

func shapeOf(v schema.Value) shape {
	switch val := v.(type) {
	case *schema.ColorFrame:
		return shape{H: val.H, W: val.W}
	case *schema.PanelStack:
		return shape{D: val.D, S: val.S}
	case *schema.Text:
		return shape{List: val.List}
	}
	return shape{}
}

// encodeValue serializes a value into its payload bytes. GRID values are
// little-endian float64, COLOR values raw RGB bytes, TEXT values JSON; the
// first two rely on the shape row to reconstruct dimensions.
func encodeValue(v schema.Value) ([]byte, error) {
	switch val := v.(type) {
	case *schema.ColorFrame:
		out := make([]byte, len(val.Pix))
		copy(out, val.Pix)
		return out, nil
	case *schema.PanelStack:
		out := make([]byte, 8*len(val.Data))
		for i, f := range val.Data {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
		}
		return out, nil
	case *schema.Text:
		if val.List {
			return json.Marshal(val.Values)
		}
		return json.Marshal(val.Scalar())
	}
	return nil, fmt.Errorf("unsupported value kind %q", v.Kind())
}

// decodeValue reverses encodeValue using the attribute's kind and shape.
func decodeValue(kind schema.Kind, sh shape, payload []byte) (schema.Value, error) {
	switch kind {
	case schema.KindColor:
		want := sh.H * sh.W * 3
		if sh.H <= 0 || sh.W <= 0 || len(payload) != want {
			return nil, fmt.Errorf("color payload has %d bytes, want %d for %dx%d", len(payload), want, sh.H, sh.W)
		}
		pix := make([]uint8, want)
		copy(pix, payload)
		return &schema.ColorFrame{H: sh.H, W: sh.W, Pix: pix}, nil
	case schema.KindGrid:
		want := sh.D * sh.S * sh.S
		if sh.D <= 0 || sh.S <= 0 || len(payload) != 8*want {
			return nil, fmt.Errorf("grid payload has %d bytes, want %d for %d panels of %dx%d", len(payload), 8*want, sh.D, sh.S, sh.S)
		}
		data := make([]float64, want)
		for i := range data {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
		return &schema.PanelStack{D: sh.D, S: sh.S, Data: data}, nil
	case schema.KindText:
		if sh.List {
			var values []string
			if err := json.Unmarshal(payload, &values); err != nil {
				return nil, fmt.Errorf("text payload: %w", err)
			}
			return &schema.Text{Values: values, List: true}, nil
		}
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("text payload: %w", err)
		}
		return schema.NewText(s), nil
	}
	return nil, fmt.Errorf("unsupported value kind %q", kind)
}
