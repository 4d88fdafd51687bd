package trackfit

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

const (
	// CrossingUnknown marks a seed whose bunch crossing is genuinely ambiguous.
	CrossingUnknown int16 = math.MaxInt16

	// NoIndex marks an unresolved link from a matched seed to a
	// sub-detector seed collection.
	NoIndex uint32 = math.MaxUint32
)

// HelixParams is the upstream helix parameterization of a seed.
type HelixParams struct {
	QOverR float64 `json:"qOverR"` // signed inverse radius (1/cm)
	X0     float64 `json:"x0"`     // circle center x (cm)
	Y0     float64 `json:"y0"`     // circle center y (cm)
	Z0     float64 `json:"z0"`     // z intercept of the z-vs-r line (cm)
	Slope  float64 `json:"slope"`  // dz/dr of the z-vs-r line
	Phi    float64 `json:"phi"`    // azimuth of the momentum at the PCA
	Theta  float64 `json:"theta"`  // polar angle of the momentum
}

// Straight reports whether the parameters describe no usable bend: zero or
// non-finite curvature.
func (p HelixParams) Straight() bool {
	return p.QOverR == 0 || math.IsNaN(p.QOverR) || math.IsInf(p.QOverR, 0)
}

// Seed is an upstream trajectory hypothesis. Seeds in a matched collection
// carry links into the primary (drift volume) and secondary (silicon)
// collections instead of hit keys.
type Seed struct {
	Keys     []HitKey    `json:"keys"`
	Helix    HelixParams `json:"helix"`
	Pt       float64     `json:"pt"`
	P        float64     `json:"p"`
	Eta      float64     `json:"eta"`
	Crossing int16       `json:"crossing"`

	PrimaryIndex   uint32 `json:"primaryIndex"`
	SecondaryIndex uint32 `json:"secondaryIndex"`
}

// Pz returns the longitudinal momentum implied by P and Theta.
func (s *Seed) Pz() float64 {
	return s.P * math.Cos(s.Helix.Theta)
}

// Charge returns +1 for positive curvature and -1 otherwise.
func (s *Seed) Charge() int {
	if s.Helix.QOverR > 0 {
		return 1
	}
	return -1
}

// HitPosition is a hit's global position and its measurement variances.
type HitPosition struct {
	Global               r3.Vector
	TransverseVariance   float64
	LongitudinalVariance float64
}

// Transverse returns the hit's projection onto the transverse plane.
func (h HitPosition) Transverse() orb.Point {
	return orb.Point{h.Global.X, h.Global.Y}
}

// Surface is a planar measurement surface.
type Surface struct {
	Center r3.Vector
	Normal r3.Vector
}

// TrajectoryState is a point on a track: where it is, where it is going and
// how far along the helix it lies from the track's reference point.
type TrajectoryState struct {
	PathLength float64
	Position   r3.Vector
	Momentum   r3.Vector
	Key        HitKey
	HasKey     bool
}

// Track is a fully resolved trajectory built from one seed or one matched
// seed pair.
type Track struct {
	ID        uint32
	Charge    int
	Crossing  int16
	ChiSquare float64
	NDF       int
	Reference TrajectoryState
	States    []TrajectoryState
	HitKeys   []HitKey

	PrimarySeed   uint32
	SecondarySeed uint32
}

func newTrack(charge int, crossing int16, reference TrajectoryState) *Track {
	t := &Track{
		Charge:        charge,
		Crossing:      crossing,
		Reference:     reference,
		PrimarySeed:   NoIndex,
		SecondarySeed: NoIndex,
	}
	t.InsertState(reference)
	return t
}

// InsertState adds a state keeping States sorted by path length. States
// with equal path length keep their insertion order.
func (t *Track) InsertState(s TrajectoryState) {
	i := sort.Search(len(t.States), func(i int) bool {
		return t.States[i].PathLength > s.PathLength
	})
	t.States = append(t.States, TrajectoryState{})
	copy(t.States[i+1:], t.States[i:])
	t.States[i] = s
}

// KeysByDetector partitions the track's hit keys by sub-detector, keeping
// the stitched order inside each partition.
func (t *Track) KeysByDetector() map[Detector][]HitKey {
	out := make(map[Detector][]HitKey)
	for _, k := range t.HitKeys {
		out[k.Detector()] = append(out[k.Detector()], k)
	}
	return out
}

// Momentum returns the reference momentum.
func (t *Track) Momentum() r3.Vector {
	return t.Reference.Momentum
}

// Pt returns the transverse momentum at the reference point.
func (t *Track) Pt() float64 {
	return math.Hypot(t.Reference.Momentum.X, t.Reference.Momentum.Y)
}

// Phi returns the azimuth of the reference momentum.
func (t *Track) Phi() float64 {
	return math.Atan2(t.Reference.Momentum.Y, t.Reference.Momentum.X)
}

// Eta returns the pseudorapidity of the reference momentum.
func (t *Track) Eta() float64 {
	pt := t.Pt()
	if pt == 0 {
		return math.Copysign(math.Inf(1), t.Reference.Momentum.Z)
	}
	return math.Asinh(t.Reference.Momentum.Z / pt)
}

// ChiSquarePerNDF returns chi2/ndf, or NaN when ndf is not positive.
func (t *Track) ChiSquarePerNDF() float64 {
	if t.NDF <= 0 {
		return math.NaN()
	}
	return t.ChiSquare / float64(t.NDF)
}
