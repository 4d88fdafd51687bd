package trackfit

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// SeedSource names the upstream convention that produced a seed collection.
type SeedSource int

const (
	// SiliconSource seeds come from the silicon layers alone and may carry
	// a genuine crossing ambiguity.
	SiliconSource SeedSource = iota
	// TPCSource seeds come from the drift volume alone and carry no
	// crossing information.
	TPCSource
	// MatchedSource entries pair a drift-volume seed with a silicon seed.
	MatchedSource
)

// ParseSeedSource maps a seed collection name to its convention.
func ParseSeedSource(name string) (SeedSource, error) {
	switch {
	case strings.Contains(name, "SvtxTrackSeed"):
		return MatchedSource, nil
	case strings.Contains(name, "TpcTrackSeed"):
		return TPCSource, nil
	case strings.Contains(name, "SiliconTrackSeed"):
		return SiliconSource, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeedSource, name)
	}
}

func (s SeedSource) String() string {
	switch s {
	case SiliconSource:
		return "SiliconTrackSeedContainer"
	case TPCSource:
		return "TpcTrackSeedContainer"
	case MatchedSource:
		return "SvtxTrackSeedContainer"
	default:
		return fmt.Sprintf("SeedSource(%d)", int(s))
	}
}

// Mode is the processing branch used for a seed.
type Mode int

const (
	ModeStandalone Mode = iota
	ModeMatched
	ModeMatchedCosmic
)

func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "standalone"
	case ModeMatched:
		return "matched"
	case ModeMatchedCosmic:
		return "matched_cosmic"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// BuilderConfig selects and parameterizes the processing branches.
type BuilderConfig struct {
	Field   Field
	Source  SeedSource
	Cosmics bool

	VertexRadius       float64
	ChargeGapThreshold float64
	CosmicFitLayers    LayerWindow
}

// DefaultBuilderConfig returns a standalone drift-volume configuration in a
// 1.4 T field.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Field:              Constant(1.4),
		Source:             TPCSource,
		VertexRadius:       DefaultVertexRadius,
		ChargeGapThreshold: DefaultChargeGapThreshold,
		CosmicFitLayers:    LayerWindow{Start: 0, End: 58},
	}
}

// Mode returns the branch used for every seed under this configuration.
func (c BuilderConfig) Mode() Mode {
	switch {
	case c.Source != MatchedSource:
		return ModeStandalone
	case c.Cosmics:
		return ModeMatchedCosmic
	default:
		return ModeMatched
	}
}

var origin = r3.Vector{}

// momentum returns the reference momentum of a seed: from its curvature
// under a constant field, from its upstream pT otherwise or when the seed
// does not bend.
func (c *Converter) momentum(s *Seed) r3.Vector {
	pt := s.Pt
	pz := s.Pz()
	if c.cfg.Field.IsConstant() && !s.Helix.Straight() {
		pt = c.cfg.Field.PtFromRadius(math.Abs(1 / s.Helix.QOverR))
		pz = pt * math.Cosh(s.Eta) * math.Cos(s.Helix.Theta)
	}
	return r3.Vector{X: pt * math.Cos(s.Helix.Phi), Y: pt * math.Sin(s.Helix.Phi), Z: pz}
}

// momentumMagnitude returns |p| for a bending radius (cm) and seed.
func (c *Converter) momentumMagnitude(s *Seed, radius float64) float64 {
	if c.cfg.Field.IsConstant() {
		return math.Cosh(s.Eta) * c.cfg.Field.PtFromRadius(radius)
	}
	return s.P
}

// seedTrajectory returns the path of a seed's states: its helix, or for a
// seed without usable curvature the line through its first hit along the
// seed direction.
func (c *Converter) seedTrajectory(s *Seed) trajectory {
	if !s.Helix.Straight() {
		return HelixFromParams(s.Helix)
	}
	anchor := origin
	for _, k := range s.Keys {
		if hit, ok := c.positions.Position(k); ok {
			anchor = hit.Global
			break
		}
	}
	c.metrics.straightSeed()
	c.logger.Debug("seed has no curvature, treating as straight", zap.Int("hits", len(s.Keys)))
	return NewLine(anchor, DirectionFromAngles(s.Helix.Phi, s.Helix.Theta))
}

// buildStandalone converts the seed at idx of a single sub-detector
// collection.
func (c *Converter) buildStandalone(idx uint32, s *Seed) *Track {
	traj := c.seedTrajectory(s)
	ref := traj.PCA(origin)
	if c.cfg.Field.IsZero() && !s.Helix.Straight() {
		// Straight tracks: replace the transverse reference with the PCA of
		// the line through the first hit.
		if len(s.Keys) > 0 {
			if hit, ok := c.positions.Position(s.Keys[0]); ok {
				pca := LinePCA(hit.Global, DirectionFromAngles(s.Helix.Phi, s.Helix.Theta), origin)
				ref.X, ref.Y = pca.X, pca.Y
			}
		}
	}

	crossing := s.Crossing
	if c.cfg.Source == TPCSource && crossing == CrossingUnknown {
		crossing = 0
	}

	t := newTrack(s.Charge(), crossing, TrajectoryState{Position: ref, Momentum: c.momentum(s)})
	t.HitKeys = StitchKeys(s.Keys, nil)
	switch c.cfg.Source {
	case SiliconSource:
		t.SecondarySeed = idx
	case TPCSource:
		t.PrimarySeed = idx
	}
	c.attachStates(t, traj, t.HitKeys, s.P)
	return t
}

// resolvePair looks up both halves of a matched entry. A nil primary means
// the entry cannot be used.
func (c *Converter) resolvePair(entry *Seed, ev *Event) (primary, secondary *Seed) {
	primary = seedAt(ev.TPCSeeds, entry.PrimaryIndex)
	if primary == nil {
		return nil, nil
	}
	if entry.SecondaryIndex != NoIndex {
		secondary = seedAt(ev.SiliconSeeds, entry.SecondaryIndex)
	}
	return primary, secondary
}

func seedAt(seeds []*Seed, idx uint32) *Seed {
	if idx == NoIndex || int64(idx) >= int64(len(seeds)) {
		return nil
	}
	return seeds[idx]
}

// buildMatched converts a matched entry for tracks from the collision
// vertex. The silicon seed, when present, provides the reference point and
// crossing; momentum always comes from the drift-volume seed.
func (c *Converter) buildMatched(entry, primary, secondary *Seed) *Track {
	traj := c.seedTrajectory(primary)
	ref := traj.PCA(origin)
	crossing := int16(0)
	if secondary != nil {
		ref = c.seedTrajectory(secondary).PCA(origin)
		crossing = secondary.Crossing
	} else {
		c.metrics.matchFallback()
		c.logger.Debug("matched seed has no silicon partner, using drift-volume estimate",
			zap.Uint32("primary", entry.PrimaryIndex))
	}

	t := newTrack(primary.Charge(), crossing, TrajectoryState{Position: ref, Momentum: c.momentum(primary)})
	t.PrimarySeed = entry.PrimaryIndex
	var secondaryKeys []HitKey
	if secondary != nil {
		t.SecondarySeed = entry.SecondaryIndex
		secondaryKeys = secondary.Keys
	}
	t.HitKeys = StitchKeys(primary.Keys, secondaryKeys)
	c.attachStates(t, traj, t.HitKeys, primary.P)
	return t
}

// cosmicTrajectory refits the drift-volume seed's hits inside the
// configured layer window, falling back to the upstream parameters.
func (c *Converter) cosmicTrajectory(primary *Seed) trajectory {
	points := positionsOf(c.positions, primary.Keys, c.cfg.CosmicFitLayers.Contains)
	if h, ok := FitHelix(points); ok {
		return h
	}
	c.logger.Debug("cosmic refit failed, using seed parameters", zap.Int("points", len(points)))
	return c.seedTrajectory(primary)
}

// vertexCircleCrossing places the cosmic reference on the nominal vertex
// circle, taking the lower of the two crossings. When the circles do not
// meet, the point of the track circle nearest the vertex circle is used.
func vertexCircleCrossing(h Helix, vertexRadius float64) orb.Point {
	if p, ok := LowestPoint(CircleCircleIntersection(vertexRadius, h.Radius, h.X0, h.Y0)); ok {
		return p
	}
	d := math.Hypot(h.X0, h.Y0)
	ux, uy := 1.0, 0.0
	if d > 0 {
		ux, uy = h.X0/d, h.Y0/d
	}
	near := orb.Point{h.X0 - h.Radius*ux, h.Y0 - h.Radius*uy}
	far := orb.Point{h.X0 + h.Radius*ux, h.Y0 + h.Radius*uy}
	if math.Abs(math.Hypot(far.X(), far.Y())-vertexRadius) < math.Abs(math.Hypot(near.X(), near.Y())-vertexRadius) {
		return far
	}
	return near
}

// buildMatchedCosmic converts a matched entry for a track that crossed the
// detector from outside. Charge and z direction come from the hit pattern,
// the momentum direction from the helix tangent at the vertex circle.
func (c *Converter) buildMatchedCosmic(entry, primary, secondary *Seed) *Track {
	traj := c.cosmicTrajectory(primary)
	vr := c.cfg.VertexRadius

	var pca, tangent r3.Vector
	helix, curved := traj.(Helix)
	if curved {
		cross := vertexCircleCrossing(helix, vr)
		pca, tangent = helix.Tangent(r3.Vector{X: cross.X(), Y: cross.Y(), Z: helix.ZAt(vr)})
		tangent = tangent.Mul(c.momentumMagnitude(primary, helix.Radius))
	} else {
		line := traj.(Line)
		at, ok := line.CircleCrossing(vr)
		if !ok {
			at = line.PCA(origin)
		}
		pca, tangent = line.Tangent(at)
		tangent = tangent.Mul(primary.P)
	}

	resolver := ChargeResolver{VertexRadius: vr, GapThreshold: c.cfg.ChargeGapThreshold}
	res := resolver.Resolve(positionsOf(c.positions, primary.Keys, nil))
	if res.Degenerate {
		c.metrics.chargeDegenerate()
		c.logger.Debug("cosmic charge unresolved, defaulting to positive",
			zap.Uint32("primary", entry.PrimaryIndex))
	}

	mom := tangent
	if res.Charge > 0 {
		mom.X, mom.Y = -tangent.X, -tangent.Y
	}
	mom.Z = -math.Abs(tangent.Z)
	if res.Slope > 0 {
		mom.Z = math.Abs(tangent.Z)
	}

	// A straight track keeps the z where it crosses the vertex circle.
	z := pca.Z
	if curved {
		z = -vr*helix.Slope + helix.Z0
		if (mom.Z > 0 && helix.Slope < 0) || (mom.Z <= 0 && helix.Slope > 0) {
			z = helix.ZAt(vr)
		}
	}

	ref := TrajectoryState{Position: r3.Vector{X: pca.X, Y: pca.Y, Z: z}, Momentum: mom}
	t := newTrack(res.Charge, 0, ref)
	t.PrimarySeed = entry.PrimaryIndex
	var secondaryKeys []HitKey
	if secondary != nil {
		t.SecondarySeed = entry.SecondaryIndex
		secondaryKeys = secondary.Keys
	}
	t.HitKeys = StitchKeys(primary.Keys, secondaryKeys)
	c.attachStates(t, traj, t.HitKeys, mom.Norm())
	return t
}
