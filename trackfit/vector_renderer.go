package trackfit

import (
	"image/color"
	"image/png"
	"io"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// trackPalette is cycled over track ids.
var trackPalette = []color.RGBA{
	{0, 0, 139, 255},   // dark blue
	{178, 34, 34, 255}, // firebrick
	{0, 100, 0, 255},   // dark green
	{184, 134, 11, 255},
	{128, 0, 128, 255},
	{0, 128, 128, 255},
}

// TrackColor returns the display color of a track.
func TrackColor(id uint32) color.RGBA {
	return trackPalette[int(id)%len(trackPalette)]
}

// VectorRenderer draws the transverse view of an event: hits, the state
// sequence of every track and the track reference points. One drawing
// unit is one centimeter.
type VectorRenderer struct {
	Event      *Event
	Tracks     []*Track
	Padding    float64           // cm around the drawn content
	Resolution canvas.Resolution // PNG pixels per drawing unit
	HitRadius  float64           // cm
	LineWidth  float64           // cm
}

// NewVectorRenderer creates a renderer with the given display settings.
func NewVectorRenderer(ev *Event, tracks []*Track, opts RenderConfig) *VectorRenderer {
	if opts.Padding <= 0 {
		opts.Padding = DefaultRenderPadding
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultRenderScale
	}
	return &VectorRenderer{
		Event:      ev,
		Tracks:     tracks,
		Padding:    opts.Padding,
		Resolution: canvas.DPMM(opts.Scale),
		HitRadius:  0.4,
		LineWidth:  0.2,
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// Bounds returns the transverse extent of the hits, the track states and
// the beam axis.
func (r *VectorRenderer) Bounds() orb.Bound {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	if r.Event != nil && r.Event.Hits != nil {
		for _, k := range r.Event.Hits.Keys() {
			if p, ok := r.Event.Hits.Position(k); ok {
				b = b.Extend(p.Transverse())
			}
		}
	}
	for _, t := range r.Tracks {
		for _, s := range t.States {
			b = b.Extend(orb.Point{s.Position.X, s.Position.Y})
		}
	}
	return b
}

func (r *VectorRenderer) size(b orb.Bound) (width, height float64) {
	return b.Right() - b.Left() + 2*r.Padding, b.Top() - b.Bottom() + 2*r.Padding
}

// RenderToSVG writes the event display as SVG.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	b := r.Bounds()
	width, height := r.size(b)
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, b, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the event display as PNG.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	b := r.Bounds()
	width, height := r.size(b)
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, b, width, height)
	return png.Encode(w, rast)
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, b orb.Bound, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(x, y float64) (float64, float64) {
		return x - b.Left() + r.Padding, y - b.Bottom() + r.Padding
	}

	// Beam axis cross-hair.
	axisStyle := canvas.DefaultStyle
	axisStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	axisStyle.Stroke = canvas.Paint{Color: canvas.Gray}
	axisStyle.StrokeWidth = r.LineWidth / 2
	ox, oy := toCanvas(0, 0)
	axis := &canvas.Path{}
	axis.MoveTo(ox-2, oy)
	axis.LineTo(ox+2, oy)
	axis.MoveTo(ox, oy-2)
	axis.LineTo(ox, oy+2)
	renderer.RenderPath(axis, axisStyle, canvas.Identity)

	// Hits on a track take its color; the rest stay grey.
	owner := make(map[HitKey]uint32)
	for _, t := range r.Tracks {
		for _, k := range t.HitKeys {
			if _, ok := owner[k]; !ok {
				owner[k] = t.ID
			}
		}
	}
	if r.Event != nil && r.Event.Hits != nil {
		for _, k := range r.Event.Hits.Keys() {
			p, _ := r.Event.Hits.Position(k)
			hitStyle := canvas.DefaultStyle
			hitStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
			hitStyle.Fill = canvas.Paint{Color: color.RGBA{200, 200, 200, 255}}
			if id, ok := owner[k]; ok {
				hitStyle.Fill = canvas.Paint{Color: TrackColor(id)}
			}
			cx, cy := toCanvas(p.Global.X, p.Global.Y)
			renderer.RenderPath(canvas.Circle(r.HitRadius).Translate(cx, cy), hitStyle, canvas.Identity)
		}
	}

	for _, t := range r.Tracks {
		c := TrackColor(t.ID)
		if len(t.States) > 1 {
			lineStyle := canvas.DefaultStyle
			lineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
			lineStyle.Stroke = canvas.Paint{Color: c}
			lineStyle.StrokeWidth = r.LineWidth

			path := &canvas.Path{}
			for i, s := range t.States {
				x, y := toCanvas(s.Position.X, s.Position.Y)
				if i == 0 {
					path.MoveTo(x, y)
				} else {
					path.LineTo(x, y)
				}
			}
			renderer.RenderPath(path, lineStyle, canvas.Identity)
		}

		refStyle := canvas.DefaultStyle
		refStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		refStyle.Stroke = canvas.Paint{Color: c}
		refStyle.StrokeWidth = r.LineWidth
		x, y := toCanvas(t.Reference.Position.X, t.Reference.Position.Y)
		renderer.RenderPath(canvas.Circle(2*r.HitRadius).Translate(x, y), refStyle, canvas.Identity)
	}
}
