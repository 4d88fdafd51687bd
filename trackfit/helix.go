package trackfit

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"
)

// Helix is the fitted geometry of a seed: a circle in the transverse plane
// and z linear in transverse radius.
type Helix struct {
	Radius float64
	X0     float64
	Y0     float64
	Slope  float64
	Z0     float64
}

const (
	surfaceIterations = 8
	surfaceTolerance  = 1e-9
	// axialNormalCutoff is the transverse normal length below which a
	// surface is treated as a disk perpendicular to the beam.
	axialNormalCutoff = 1e-9
)

// HelixFromParams builds the fitted geometry from upstream seed parameters.
func HelixFromParams(p HelixParams) Helix {
	return Helix{
		Radius: math.Abs(1 / p.QOverR),
		X0:     p.X0,
		Y0:     p.Y0,
		Slope:  p.Slope,
		Z0:     p.Z0,
	}
}

// Circle returns the transverse projection of the helix.
func (h Helix) Circle() Circle {
	return Circle{Center: orb.Point{h.X0, h.Y0}, Radius: h.Radius}
}

// ZAt returns z on the fitted line at transverse radius r.
func (h Helix) ZAt(r float64) float64 {
	return h.Slope*r + h.Z0
}

// PCA returns the point of the helix closest to p: the closest point of
// the circle in the transverse plane, with z taken from the line at that
// point's radius.
func (h Helix) PCA(p r3.Vector) r3.Vector {
	dx, dy := p.X-h.X0, p.Y-h.Y0
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		dx, dy, norm = 1, 0, 1
	}
	x := h.X0 + h.Radius*dx/norm
	y := h.Y0 + h.Radius*dy/norm
	return r3.Vector{X: x, Y: y, Z: h.ZAt(math.Hypot(x, y))}
}

// Tangent returns the PCA of p on the helix and the unit direction of the
// helix there. The direction is the derivative of the circle and line with
// respect to arc length; its sign is arbitrary and callers must enforce
// continuity along a track.
func (h Helix) Tangent(p r3.Vector) (r3.Vector, r3.Vector) {
	pca := h.PCA(p)
	t := math.Atan2(pca.Y-h.Y0, pca.X-h.X0)
	dxds := -math.Sin(t)
	dyds := math.Cos(t)
	var drds float64
	if r := math.Hypot(pca.X, pca.Y); r > 0 {
		drds = (pca.X*dxds + pca.Y*dyds) / r
	}
	dir := r3.Vector{X: dxds, Y: dyds, Z: h.Slope * drds}
	return pca, dir.Normalize()
}

// SurfaceIntersection intersects the helix with a planar surface and
// returns the root closest to near. It reports false when the helix misses
// the surface.
func (h Helix) SurfaceIntersection(s Surface, near r3.Vector) (r3.Vector, bool) {
	n := s.Normal.Normalize()
	nt := math.Hypot(n.X, n.Y)
	nearXY := orb.Point{near.X, near.Y}

	if nt < axialNormalCutoff {
		// Disk at fixed z: the helix crosses it at the radius where the
		// line reaches that z.
		if h.Slope == 0 {
			return r3.Vector{}, false
		}
		z := s.Center.Z
		r := (z - h.Z0) / h.Slope
		if r <= 0 {
			return r3.Vector{}, false
		}
		p, ok := NearestPoint(CircleCircleIntersection(r, h.Radius, h.X0, h.Y0), nearXY)
		if !ok {
			return r3.Vector{}, false
		}
		return r3.Vector{X: p.X(), Y: p.Y(), Z: z}, true
	}

	// The plane's trace in the transverse plane depends on z, which in turn
	// depends on the radius of the crossing point. Iterate to a fixed point.
	unit := orb.Point{n.X / nt, n.Y / nt}
	planeDist := n.Dot(s.Center)
	z := h.ZAt(math.Hypot(near.X, near.Y))
	var p orb.Point
	for i := 0; i < surfaceIterations; i++ {
		dist := (planeDist - n.Z*z) / nt
		var ok bool
		p, ok = NearestPoint(circleLineIntersection(h.Circle(), unit, dist), nearXY)
		if !ok {
			return r3.Vector{}, false
		}
		zNew := h.ZAt(math.Hypot(p.X(), p.Y()))
		converged := math.Abs(zNew-z) < surfaceTolerance
		z = zNew
		if converged || n.Z == 0 {
			break
		}
	}
	return r3.Vector{X: p.X(), Y: p.Y(), Z: z}, true
}

// PathLength returns the signed arc length along the helix from the PCA of
// from to the PCA of to. The sign follows the direction of increasing
// azimuth about the circle center.
func (h Helix) PathLength(from, to r3.Vector) float64 {
	a := h.PCA(from)
	b := h.PCA(to)
	phiA := math.Atan2(a.Y-h.Y0, a.X-h.X0)
	phiB := math.Atan2(b.Y-h.Y0, b.X-h.X0)
	sxy := h.Radius * WrapPhi(phiB-phiA)
	return math.Copysign(math.Hypot(sxy, b.Z-a.Z), sxy)
}

// WrapPhi wraps an angle difference into (-pi, pi].
func WrapPhi(d float64) float64 {
	d = math.Remainder(d, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// LinePCA returns the point on the line through anchor with direction dir
// that is closest to ref.
func LinePCA(anchor, dir, ref r3.Vector) r3.Vector {
	d2 := dir.Norm2()
	if d2 == 0 {
		return anchor
	}
	t := ref.Sub(anchor).Dot(dir) / d2
	return anchor.Add(dir.Mul(t))
}

// DirectionFromAngles returns the unit vector with azimuth phi and polar
// angle theta.
func DirectionFromAngles(phi, theta float64) r3.Vector {
	return r3.Vector{
		X: math.Cos(phi) * math.Sin(theta),
		Y: math.Sin(phi) * math.Sin(theta),
		Z: math.Cos(theta),
	}
}

// FitLine fits z = slope*r + z0 to the points by least squares, with r the
// transverse radius. It reports false when fewer than two distinct radii
// are available.
func FitLine(points []r3.Vector) (slope, z0 float64, ok bool) {
	if len(points) < 2 {
		return 0, 0, false
	}
	rs := make([]float64, len(points))
	zs := make([]float64, len(points))
	minR, maxR := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		rs[i] = math.Hypot(p.X, p.Y)
		zs[i] = p.Z
		minR = math.Min(minR, rs[i])
		maxR = math.Max(maxR, rs[i])
	}
	if maxR-minR == 0 {
		return 0, 0, false
	}
	alpha, beta := stat.LinearRegression(rs, zs, nil, false)
	return beta, alpha, true
}

// FitHelix fits a circle and a line to the hit positions. It reports false
// when fewer than three points are given or the line is undetermined.
func FitHelix(points []r3.Vector) (Helix, bool) {
	if len(points) < 3 {
		return Helix{}, false
	}
	xy := make([]orb.Point, len(points))
	for i, p := range points {
		xy[i] = orb.Point{p.X, p.Y}
	}
	c := FitCircle(xy)
	if math.IsNaN(c.Radius) || math.IsInf(c.Radius, 0) {
		return Helix{}, false
	}
	slope, z0, ok := FitLine(points)
	if !ok {
		return Helix{}, false
	}
	return Helix{Radius: c.Radius, X0: c.Center.X(), Y0: c.Center.Y(), Slope: slope, Z0: z0}, true
}
