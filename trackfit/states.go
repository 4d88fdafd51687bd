package trackfit

import (
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

// Hit drop reasons reported to metrics.
const (
	dropNoPosition     = "position"
	dropNoSurface      = "surface"
	dropNoIntersection = "intersection"
)

// attachStates walks keys in order, adds one state per hit that crosses
// its surface and fills the track's fit statistic. p is the momentum
// magnitude given to every state.
func (c *Converter) attachStates(t *Track, traj trajectory, keys []HitKey, p float64) {
	var acc ResidualAccumulator
	candidates := make([]TrajectoryState, 0, len(keys))
	for _, key := range keys {
		hit, ok := c.positions.Position(key)
		if !ok {
			c.metrics.hitDropped(dropNoPosition)
			continue
		}
		surf, ok := c.surfaces.Surface(key)
		if !ok {
			c.metrics.hitDropped(dropNoSurface)
			continue
		}
		x, ok := traj.SurfaceIntersection(surf, hit.Global)
		if !ok {
			c.metrics.hitDropped(dropNoIntersection)
			c.logger.Debug("trajectory misses hit surface", zap.Stringer("key", key))
			continue
		}
		_, dir := traj.Tangent(x)
		candidates = append(candidates, TrajectoryState{
			PathLength: traj.PathLength(t.Reference.Position, x),
			Position:   x,
			Momentum:   dir.Mul(p),
			Key:        key,
			HasKey:     true,
		})
		acc.Add(NewResidual(hit, x))
	}

	for _, s := range EnforceContinuity(t.Reference.Momentum, candidates) {
		t.InsertState(s)
	}
	t.ChiSquare = acc.ChiSquare()
	t.NDF = acc.NDF()
}

// EnforceContinuity returns states in the same order with each momentum
// flipped where needed so that consecutive momenta never point apart. The
// first state is compared against initial. The input is not modified.
func EnforceContinuity(initial r3.Vector, states []TrajectoryState) []TrajectoryState {
	out := make([]TrajectoryState, 0, len(states))
	prev := initial
	for _, s := range states {
		s, prev = alignMomentum(s, prev)
		out = append(out, s)
	}
	return out
}

// alignMomentum is one step of the continuity fold.
func alignMomentum(s TrajectoryState, prev r3.Vector) (TrajectoryState, r3.Vector) {
	if s.Momentum.Dot(prev) < 0 {
		s.Momentum = s.Momentum.Mul(-1)
	}
	return s, s.Momentum
}
