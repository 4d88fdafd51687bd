package trackfit

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"
)

// Circle is a circle in the transverse plane.
type Circle struct {
	Center orb.Point
	Radius float64
}

const (
	taubinMaxIterations = 99
	// tangentEpsilon absorbs rounding when two circles or a circle and a
	// line only just touch.
	tangentEpsilon = 1e-12
)

// FitCircle fits a circle to the points with Taubin's algebraic method,
// solved by Newton iteration on the characteristic polynomial.
// Collinear input is not rejected; it yields a very large or non-finite
// radius.
func FitCircle(points []orb.Point) Circle {
	n := len(points)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i], ys[i] = p.X(), p.Y()
	}
	meanX := stat.Mean(xs, nil)
	meanY := stat.Mean(ys, nil)

	var mxx, myy, mxy, mxz, myz, mzz float64
	for i := range points {
		xi := xs[i] - meanX
		yi := ys[i] - meanY
		zi := xi*xi + yi*yi
		mxy += xi * yi
		mxx += xi * xi
		myy += yi * yi
		mxz += xi * zi
		myz += yi * zi
		mzz += zi * zi
	}
	fn := float64(n)
	mxx /= fn
	myy /= fn
	mxy /= fn
	mxz /= fn
	myz /= fn
	mzz /= fn

	mz := mxx + myy
	covXY := mxx*myy - mxy*mxy
	varZ := mzz - mz*mz
	a3 := 4 * mz
	a2 := -3*mz*mz - mzz
	a1 := varZ*mz + 4*covXY*mz - mxz*mxz - myz*myz
	a0 := mxz*(mxz*myy-myz*mxy) + myz*(myz*mxx-mxz*mxy) - varZ*covXY
	a22 := a2 + a2
	a33 := a3 + a3 + a3

	x, y := 0.0, a0
	for iter := 0; iter < taubinMaxIterations; iter++ {
		dy := a1 + x*(a22+a33*x)
		xNew := x - y/dy
		if xNew == x || math.IsNaN(xNew) || math.IsInf(xNew, 0) {
			break
		}
		yNew := a0 + xNew*(a1+xNew*(a2+xNew*a3))
		if math.Abs(yNew) >= math.Abs(y) {
			break
		}
		x, y = xNew, yNew
	}

	det := x*x - x*mz + covXY
	cx := (mxz*(myy-x) - myz*mxy) / det / 2
	cy := (myz*(mxx-x) - mxz*mxy) / det / 2

	return Circle{
		Center: orb.Point{cx + meanX, cy + meanY},
		Radius: math.Sqrt(cx*cx + cy*cy + mz),
	}
}

// CircleCircleIntersection intersects a circle of radius r1 centered at the
// origin with a circle of radius r2 centered at (x2, y2). It returns zero,
// one (tangent) or two points; choosing between two is left to the caller.
func CircleCircleIntersection(r1, r2, x2, y2 float64) []orb.Point {
	d2 := x2*x2 + y2*y2
	if d2 == 0 {
		return nil
	}
	d := math.Sqrt(d2)
	a := (r1*r1 - r2*r2 + d2) / (2 * d)
	h2 := r1*r1 - a*a
	if h2 < 0 {
		if h2 < -tangentEpsilon*r1*r1 {
			return nil
		}
		h2 = 0
	}
	bx, by := a*x2/d, a*y2/d
	if h2 == 0 {
		return []orb.Point{{bx, by}}
	}
	h := math.Sqrt(h2)
	ox, oy := -h*y2/d, h*x2/d
	return []orb.Point{{bx + ox, by + oy}, {bx - ox, by - oy}}
}

// circleLineIntersection intersects c with the line {p : n·p = dist}, where
// n is a unit normal.
func circleLineIntersection(c Circle, n orb.Point, dist float64) []orb.Point {
	delta := dist - (n.X()*c.Center.X() + n.Y()*c.Center.Y())
	h2 := c.Radius*c.Radius - delta*delta
	if h2 < 0 {
		if h2 < -tangentEpsilon*c.Radius*c.Radius {
			return nil
		}
		h2 = 0
	}
	fx := c.Center.X() + delta*n.X()
	fy := c.Center.Y() + delta*n.Y()
	if h2 == 0 {
		return []orb.Point{{fx, fy}}
	}
	h := math.Sqrt(h2)
	tx, ty := -n.Y()*h, n.X()*h
	return []orb.Point{{fx + tx, fy + ty}, {fx - tx, fy - ty}}
}

// LowestPoint returns the candidate with the smaller y coordinate.
func LowestPoint(points []orb.Point) (orb.Point, bool) {
	if len(points) == 0 {
		return orb.Point{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Y() < best.Y() {
			best = p
		}
	}
	return best, true
}

// NearestPoint returns the candidate closest to ref.
func NearestPoint(points []orb.Point, ref orb.Point) (orb.Point, bool) {
	if len(points) == 0 {
		return orb.Point{}, false
	}
	best := points[0]
	bestDist := planar.DistanceSquared(best, ref)
	for _, p := range points[1:] {
		if d := planar.DistanceSquared(p, ref); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}
