package layout

import (
	"image"
	"image/color"
	"math"

	"rlviz/internal/schema"
)

// RenderStack rasterizes a panel stack into a grayscale composite using the
// given grid. Each panel value v in [0, 255] maps to the color (v, v, v);
// values outside that range are clamped. Panel cells scale with
// floor-origin/ceil-extent rounding, so adjacent source cells never gap or
// overlap by more than one pixel.
func RenderStack(ps *schema.PanelStack, g Grid) *image.RGBA {
	img := image.NewRGBA(g.Bounds())
	if ps == nil || g.Cell <= 0 {
		return img
	}
	for i := 0; i < ps.D; i++ {
		drawPanel(img, ps, i, g.CellRect(i))
	}
	return img
}

func drawPanel(img *image.RGBA, ps *schema.PanelStack, panel int, rect image.Rectangle) {
	cell := rect.Dx()
	for sy := 0; sy < ps.S; sy++ {
		y0 := rect.Min.Y + sy*cell/ps.S
		y1 := rect.Min.Y + ceilDiv((sy+1)*cell, ps.S)
		for sx := 0; sx < ps.S; sx++ {
			x0 := rect.Min.X + sx*cell/ps.S
			x1 := rect.Min.X + ceilDiv((sx+1)*cell, ps.S)
			c := grayOf(ps.At(panel, sy, sx))
			fill(img, x0, y0, x1, y1, c)
		}
	}
}

func grayOf(v float64) color.RGBA {
	rounded := math.Round(v)
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 255 {
		rounded = 255
	}
	g := uint8(rounded)
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

func fill(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	bounds := img.Bounds()
	if x1 > bounds.Max.X {
		x1 = bounds.Max.X
	}
	if y1 > bounds.Max.Y {
		y1 = bounds.Max.Y
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
