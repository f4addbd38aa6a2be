package schema

import "fmt"

// Value is the tagged union carried for one attribute at one timestep.
// The union is sealed: only ColorFrame, PanelStack, and Text implement it.
type Value interface {
	Kind() Kind
	// Validate checks internal shape consistency (dimensions versus backing
	// storage length).
	Validate() error
}

// ColorFrame is an H×W RGB image with 8-bit channels. Pix is row-major,
// three bytes per pixel.
type ColorFrame struct {
	H, W int
	Pix  []uint8
}

func (f *ColorFrame) Kind() Kind { return KindColor }

func (f *ColorFrame) Validate() error {
	if f.H <= 0 || f.W <= 0 {
		return fmt.Errorf("color frame dimensions %dx%d must be positive", f.H, f.W)
	}
	if want := f.H * f.W * 3; len(f.Pix) != want {
		return fmt.Errorf("color frame pixel buffer has %d bytes, want %d", len(f.Pix), want)
	}
	return nil
}

// RGBAt returns the pixel at row y, column x.
func (f *ColorFrame) RGBAt(y, x int) (r, g, b uint8) {
	i := (y*f.W + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// NewColorFrame allocates a zeroed H×W frame.
func NewColorFrame(h, w int) *ColorFrame {
	return &ColorFrame{H: h, W: w, Pix: make([]uint8, h*w*3)}
}

// PanelStack is an ordered stack of D square S×S numeric panels. Data is
// laid out panel-major, then row-major within a panel.
type PanelStack struct {
	D, S int
	Data []float64
}

func (p *PanelStack) Kind() Kind { return KindGrid }

func (p *PanelStack) Validate() error {
	if p.D <= 0 {
		return fmt.Errorf("panel stack must contain at least one panel, got %d", p.D)
	}
	if p.S <= 0 {
		return fmt.Errorf("panel side length must be positive, got %d", p.S)
	}
	if want := p.D * p.S * p.S; len(p.Data) != want {
		return fmt.Errorf("panel stack backing has %d values, want %d", len(p.Data), want)
	}
	return nil
}

// At returns the value at panel d, row y, column x.
func (p *PanelStack) At(d, y, x int) float64 {
	return p.Data[d*p.S*p.S+y*p.S+x]
}

// Set assigns the value at panel d, row y, column x.
func (p *PanelStack) Set(d, y, x int, v float64) {
	p.Data[d*p.S*p.S+y*p.S+x] = v
}

// Panel returns panel d as a freshly allocated S×S matrix.
func (p *PanelStack) Panel(d int) [][]float64 {
	rows := make([][]float64, p.S)
	base := d * p.S * p.S
	for y := 0; y < p.S; y++ {
		row := make([]float64, p.S)
		copy(row, p.Data[base+y*p.S:base+(y+1)*p.S])
		rows[y] = row
	}
	return rows
}

// NewPanelStack allocates a zeroed stack of d panels sized s×s.
func NewPanelStack(d, s int) *PanelStack {
	return &PanelStack{D: d, S: s, Data: make([]float64, d*s*s)}
}

// Text holds either a single string or an ordered sequence of strings.
// List distinguishes a one-element sequence from a scalar.
type Text struct {
	Values []string
	List   bool
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Validate() error {
	if !t.List && len(t.Values) != 1 {
		return fmt.Errorf("scalar text must hold exactly one string, got %d", len(t.Values))
	}
	return nil
}

// NewText wraps a single string.
func NewText(s string) *Text { return &Text{Values: []string{s}} }

// NewTextList wraps an ordered sequence of strings.
func NewTextList(values ...string) *Text {
	return &Text{Values: append([]string(nil), values...), List: true}
}

// Scalar returns the single string of a scalar Text.
func (t *Text) Scalar() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[0]
}
