package trackfit

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// fitParameters is the number of free parameters of the circle+line model.
const fitParameters = 5

// Residual is the distance between a measured hit and the point where the
// fitted helix crosses the hit's surface.
type Residual struct {
	Transverse           float64
	Longitudinal         float64
	TransverseVariance   float64
	LongitudinalVariance float64
}

// NewResidual computes the residual of hit against the helix crossing point.
// The transverse residual is the planar distance; the longitudinal residual
// combines the radial and z offsets.
func NewResidual(hit HitPosition, intersection r3.Vector) Residual {
	g := hit.Global
	dr := math.Hypot(g.X, g.Y) - math.Hypot(intersection.X, intersection.Y)
	dz := g.Z - intersection.Z
	return Residual{
		Transverse:           planar.Distance(hit.Transverse(), orb.Point{intersection.X, intersection.Y}),
		Longitudinal:         math.Hypot(dr, dz),
		TransverseVariance:   hit.TransverseVariance,
		LongitudinalVariance: hit.LongitudinalVariance,
	}
}

// ChiSquare returns the variance-weighted squared residual. Covariance
// between the two directions is ignored.
func (r Residual) ChiSquare() float64 {
	return r.Transverse*r.Transverse/r.TransverseVariance +
		r.Longitudinal*r.Longitudinal/r.LongitudinalVariance
}

// ResidualAccumulator sums chi-square over hits. The zero value is ready
// to use.
type ResidualAccumulator struct {
	chi2 float64
	hits int
}

// Add accumulates a residual. Residuals without positive variances cannot
// be weighted and are rejected.
func (a *ResidualAccumulator) Add(r Residual) bool {
	if !(r.TransverseVariance > 0) || !(r.LongitudinalVariance > 0) {
		return false
	}
	a.chi2 += r.ChiSquare()
	a.hits++
	return true
}

// ChiSquare returns the accumulated chi-square.
func (a *ResidualAccumulator) ChiSquare() float64 {
	return a.chi2
}

// Hits returns the number of residuals in the sum.
func (a *ResidualAccumulator) Hits() int {
	return a.hits
}

// NDF returns 2 per hit minus the five helix parameters. It is negative
// for seeds with fewer than three hits.
func (a *ResidualAccumulator) NDF() int {
	return 2*a.hits - fitParameters
}
