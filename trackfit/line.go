package trackfit

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

// trajectory is the fitted path states are placed on: a Helix for bending
// seeds, a Line for straight ones.
type trajectory interface {
	PCA(p r3.Vector) r3.Vector
	Tangent(p r3.Vector) (r3.Vector, r3.Vector)
	SurfaceIntersection(s Surface, near r3.Vector) (r3.Vector, bool)
	PathLength(from, to r3.Vector) float64
}

// parallelCutoff is the |normal . direction| below which a line is taken
// to run parallel to a surface.
const parallelCutoff = 1e-12

// Line is a straight trajectory through Anchor along the unit vector Dir.
type Line struct {
	Anchor r3.Vector
	Dir    r3.Vector
}

// NewLine returns the line through anchor along dir. A zero dir is
// replaced by the beam axis.
func NewLine(anchor, dir r3.Vector) Line {
	if dir.Norm2() == 0 {
		dir = r3.Vector{Z: 1}
	}
	return Line{Anchor: anchor, Dir: dir.Normalize()}
}

// PCA returns the point of the line closest to p.
func (l Line) PCA(p r3.Vector) r3.Vector {
	return LinePCA(l.Anchor, l.Dir, p)
}

// Tangent returns the PCA of p and the line direction.
func (l Line) Tangent(p r3.Vector) (r3.Vector, r3.Vector) {
	return l.PCA(p), l.Dir
}

// SurfaceIntersection returns the point where the line crosses the plane of
// s. It reports false when the line runs parallel to the plane.
func (l Line) SurfaceIntersection(s Surface, near r3.Vector) (r3.Vector, bool) {
	n := s.Normal.Normalize()
	denom := n.Dot(l.Dir)
	if math.Abs(denom) < parallelCutoff {
		return r3.Vector{}, false
	}
	t := n.Dot(s.Center.Sub(l.Anchor)) / denom
	return l.Anchor.Add(l.Dir.Mul(t)), true
}

// PathLength returns the signed distance along Dir from the PCA of from to
// the PCA of to.
func (l Line) PathLength(from, to r3.Vector) float64 {
	return to.Sub(from).Dot(l.Dir)
}

// CircleCrossing returns the lower of the points where the line crosses
// the cylinder of the given radius about the beam axis. It reports false
// when the line stays inside or outside the cylinder or runs along the
// beam.
func (l Line) CircleCrossing(radius float64) (r3.Vector, bool) {
	dt := math.Hypot(l.Dir.X, l.Dir.Y)
	if dt == 0 {
		return r3.Vector{}, false
	}
	n := orb.Point{-l.Dir.Y / dt, l.Dir.X / dt}
	dist := n.X()*l.Anchor.X + n.Y()*l.Anchor.Y
	p, ok := LowestPoint(circleLineIntersection(Circle{Radius: radius}, n, dist))
	if !ok {
		return r3.Vector{}, false
	}
	t := ((p.X()-l.Anchor.X)*l.Dir.X + (p.Y()-l.Anchor.Y)*l.Dir.Y) / (dt * dt)
	return l.Anchor.Add(l.Dir.Mul(t)), true
}
