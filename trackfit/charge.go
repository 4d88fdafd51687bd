package trackfit

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// DefaultVertexRadius is the nominal radius (cm) of the circle on which
	// a cosmic track's reference point is placed.
	DefaultVertexRadius = 80.0

	// DefaultChargeGapThreshold is the minimum radial gap (cm) between the
	// outermost lower-hemisphere hit and the second hit used to resolve a
	// cosmic track's charge.
	DefaultChargeGapThreshold = 10.0
)

// ChargeResolver determines the charge sign and z direction of tracks that
// do not come from the collision vertex. It looks only at hits in the lower
// half of the detector (y < 0), where a downward-going cosmic exits.
type ChargeResolver struct {
	VertexRadius float64
	GapThreshold float64
}

// ChargeResolution is the result of ChargeResolver.Resolve.
type ChargeResolution struct {
	Charge int
	// Slope is dr/dz between the two selected hits; only its sign is used.
	Slope float64
	// Degenerate is set when fewer than two qualifying hits were found and
	// the default (+1, 0) was returned.
	Degenerate bool
}

// NewChargeResolver returns a resolver with the default policy constants.
func NewChargeResolver() ChargeResolver {
	return ChargeResolver{
		VertexRadius: DefaultVertexRadius,
		GapThreshold: DefaultChargeGapThreshold,
	}
}

// Resolve picks the outermost lower-hemisphere hit and the nearest
// lower-hemisphere hit at least GapThreshold further in, and reads the
// bending direction from the azimuth difference of the two hits as seen
// from the nominal vertex point (0, -VertexRadius, 0).
func (c ChargeResolver) Resolve(positions []r3.Vector) ChargeResolution {
	outerIdx := -1
	outerR := 0.0
	for i, p := range positions {
		if p.Y >= 0 {
			continue
		}
		if r := math.Hypot(p.X, p.Y); outerIdx < 0 || r > outerR {
			outerIdx, outerR = i, r
		}
	}
	if outerIdx < 0 {
		return ChargeResolution{Charge: 1, Degenerate: true}
	}

	secondIdx := -1
	bestGap := math.Inf(1)
	for i, p := range positions {
		if i == outerIdx || p.Y >= 0 {
			continue
		}
		gap := outerR - math.Hypot(p.X, p.Y)
		if gap > c.GapThreshold && gap < bestGap {
			secondIdx, bestGap = i, gap
		}
	}
	if secondIdx < 0 {
		return ChargeResolution{Charge: 1, Degenerate: true}
	}

	outer, second := positions[outerIdx], positions[secondIdx]
	vertex := r3.Vector{X: 0, Y: -c.VertexRadius, Z: 0}
	o := outer.Sub(vertex)
	s := second.Sub(vertex)
	dphi := WrapPhi(math.Atan2(s.Y, s.X) - math.Atan2(o.Y, o.X))

	charge := 1
	if dphi > 0 {
		charge = -1
	}

	r1 := math.Hypot(outer.X, outer.Y)
	r2 := math.Hypot(second.X, second.Y)
	slope := (r2 - r1) / (second.Z - outer.Z)

	return ChargeResolution{Charge: charge, Slope: slope}
}
