package trackfit

import (
	"math"

	"github.com/golang/geo/r3"
)

// PositionService resolves a hit key to its global position and
// measurement variances.
type PositionService interface {
	Position(key HitKey) (HitPosition, bool)
}

// SurfaceService resolves a hit key to the surface it was measured on.
type SurfaceService interface {
	Surface(key HitKey) (Surface, bool)
}

// HitTable is an in-memory PositionService and SurfaceService. It is
// filled before processing and read-only afterwards.
type HitTable struct {
	positions map[HitKey]HitPosition
	surfaces  map[HitKey]Surface
	order     []HitKey
}

// NewHitTable creates an empty table.
func NewHitTable() *HitTable {
	return &HitTable{
		positions: make(map[HitKey]HitPosition),
		surfaces:  make(map[HitKey]Surface),
	}
}

// Add records a hit. A nil surface leaves the hit without one.
func (t *HitTable) Add(key HitKey, pos HitPosition, surf *Surface) {
	if _, ok := t.positions[key]; !ok {
		t.order = append(t.order, key)
	}
	t.positions[key] = pos
	if surf != nil {
		t.surfaces[key] = *surf
	} else {
		delete(t.surfaces, key)
	}
}

// Position implements PositionService.
func (t *HitTable) Position(key HitKey) (HitPosition, bool) {
	p, ok := t.positions[key]
	return p, ok
}

// Surface implements SurfaceService.
func (t *HitTable) Surface(key HitKey) (Surface, bool) {
	s, ok := t.surfaces[key]
	return s, ok
}

// Len returns the number of hits.
func (t *HitTable) Len() int {
	return len(t.order)
}

// Keys returns hit keys in insertion order.
func (t *HitTable) Keys() []HitKey {
	out := make([]HitKey, len(t.order))
	copy(out, t.order)
	return out
}

// RadialSurface returns the plane through p whose normal points radially
// away from the beam axis, as for a barrel layer. A point on the axis gets
// a disk perpendicular to the beam.
func RadialSurface(p r3.Vector) Surface {
	r := math.Hypot(p.X, p.Y)
	if r == 0 {
		return Surface{Center: p, Normal: r3.Vector{Z: 1}}
	}
	return Surface{Center: p, Normal: r3.Vector{X: p.X / r, Y: p.Y / r}}
}

// positionsOf looks up the positions of keys, skipping unknown keys.
func positionsOf(svc PositionService, keys []HitKey, keep func(HitKey) bool) []r3.Vector {
	out := make([]r3.Vector, 0, len(keys))
	for _, k := range keys {
		if keep != nil && !keep(k) {
			continue
		}
		if p, ok := svc.Position(k); ok {
			out = append(out, p.Global)
		}
	}
	return out
}
