package trackfit

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterRenderer draws the transverse view into a bitmap with a text
// legend listing every track.
type RasterRenderer struct {
	vector *VectorRenderer
	Scale  float64 // pixels per cm
}

// NewRasterRenderer creates a bitmap renderer with the given display settings.
func NewRasterRenderer(ev *Event, tracks []*Track, opts RenderConfig) *RasterRenderer {
	v := NewVectorRenderer(ev, tracks, opts)
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultRenderScale
	}
	return &RasterRenderer{vector: v, Scale: scale}
}

// Render draws the event.
func (r *RasterRenderer) Render() *image.RGBA {
	b := r.vector.Bounds()
	w, h := r.vector.size(b)
	width := int(math.Ceil(w * r.Scale))
	height := int(math.Ceil(h * r.Scale))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	// Image rows grow downward.
	toPixel := func(x, y float64) (int, int) {
		px := (x - b.Left() + r.vector.Padding) * r.Scale
		py := (b.Top() - y + r.vector.Padding) * r.Scale
		return int(math.Round(px)), int(math.Round(py))
	}

	grey := color.RGBA{200, 200, 200, 255}
	ev := r.vector.Event
	if ev != nil && ev.Hits != nil {
		for _, k := range ev.Hits.Keys() {
			p, _ := ev.Hits.Position(k)
			x, y := toPixel(p.Global.X, p.Global.Y)
			drawCircle(img, x, y, 2, grey)
		}
	}

	for _, t := range r.vector.Tracks {
		c := TrackColor(t.ID)
		for i := 1; i < len(t.States); i++ {
			x0, y0 := toPixel(t.States[i-1].Position.X, t.States[i-1].Position.Y)
			x1, y1 := toPixel(t.States[i].Position.X, t.States[i].Position.Y)
			drawLine(img, x0, y0, x1, y1, c)
		}
		for _, s := range t.States {
			if s.HasKey {
				x, y := toPixel(s.Position.X, s.Position.Y)
				drawCircle(img, x, y, 2, c)
			}
		}
		x, y := toPixel(t.Reference.Position.X, t.Reference.Position.Y)
		drawCircle(img, x, y, 4, c)
	}

	r.drawLegend(img)
	return img
}

// Label returns the legend line of a track.
func Label(t *Track) string {
	chi := "n/a"
	if t.NDF > 0 {
		chi = fmt.Sprintf("%.2f", t.ChiSquarePerNDF())
	}
	return fmt.Sprintf("#%d q=%+d pT=%.2f chi2/ndf=%s", t.ID, t.Charge, t.Pt(), chi)
}

func (r *RasterRenderer) drawLegend(img *image.RGBA) {
	y := 15
	for _, t := range r.vector.Tracks {
		c := TrackColor(t.ID)
		for dy := 0; dy < 10; dy++ {
			for dx := 0; dx < 10; dx++ {
				img.Set(10+dx, y+dy-9, c)
			}
		}
		drawText(img, 26, y, Label(t), color.RGBA{0, 0, 0, 255})
		y += 16
	}
}

// WritePNG encodes the rendered event.
func (r *RasterRenderer) WritePNG(w io.Writer) error {
	return png.Encode(w, r.Render())
}

// SavePNG renders the event into a PNG file.
func (r *RasterRenderer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return r.WritePNG(f)
}

// drawCircle draws a filled circle
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	bounds := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				if p := image.Pt(cx+dx, cy+dy); p.In(bounds) {
					img.SetRGBA(p.X, p.Y, c)
				}
			}
		}
	}
}

// drawLine draws a one pixel line with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	bounds := img.Bounds()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if p := image.Pt(x0, y0); p.In(bounds) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
