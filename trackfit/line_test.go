package trackfit

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLine(t *testing.T) {
	l := NewLine(r3.Vector{X: 1}, r3.Vector{X: 3, Y: 4})
	assert.InDelta(t, 1, l.Dir.Norm(), 1e-12)
	assert.InDelta(t, 0.6, l.Dir.X, 1e-12)

	l = NewLine(r3.Vector{}, r3.Vector{})
	assert.Equal(t, r3.Vector{Z: 1}, l.Dir, "a zero direction falls back to the beam axis")
}

func TestLineTangent(t *testing.T) {
	l := NewLine(r3.Vector{Y: 2}, r3.Vector{X: 1})
	pca, dir := l.Tangent(r3.Vector{X: 7, Y: -5, Z: 3})
	assert.True(t, vecNear(pca, r3.Vector{X: 7, Y: 2}, 1e-12), "pca %v", pca)
	assert.Equal(t, l.Dir, dir)
}

func TestLineSurfaceIntersection(t *testing.T) {
	l := NewLine(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{Z: 1})

	t.Run("disk", func(t *testing.T) {
		got, ok := l.SurfaceIntersection(Surface{Center: r3.Vector{Z: 8}, Normal: r3.Vector{Z: 1}}, r3.Vector{})
		require.True(t, ok)
		assert.True(t, vecNear(got, r3.Vector{X: 1, Y: 2, Z: 8}, 1e-12), "got %v", got)
	})

	t.Run("parallel plane", func(t *testing.T) {
		_, ok := l.SurfaceIntersection(Surface{Center: r3.Vector{X: 5}, Normal: r3.Vector{X: 1}}, r3.Vector{})
		assert.False(t, ok)
	})

	t.Run("tilted plane through a line point", func(t *testing.T) {
		tilted := NewLine(r3.Vector{X: -2, Y: 1}, r3.Vector{X: 1, Y: 1, Z: 0.5})
		p := tilted.Anchor.Add(tilted.Dir.Mul(12))
		got, ok := tilted.SurfaceIntersection(RadialSurface(p), r3.Vector{})
		require.True(t, ok)
		assert.True(t, vecNear(got, p, 1e-9), "got %v, want %v", got, p)
	})
}

func TestLinePathLength(t *testing.T) {
	l := NewLine(r3.Vector{}, r3.Vector{X: 1})
	assert.InDelta(t, 3, l.PathLength(r3.Vector{X: 1, Y: 5}, r3.Vector{X: 4, Y: -2}), 1e-12)
	assert.InDelta(t, -3, l.PathLength(r3.Vector{X: 4, Y: -2}, r3.Vector{X: 1, Y: 5}), 1e-12)
}

func TestLineCircleCrossing(t *testing.T) {
	// A line falling through the detector at x = 5 while rising in z.
	l := NewLine(r3.Vector{X: 5, Y: 100}, r3.Vector{Y: -1, Z: 1})
	got, ok := l.CircleCrossing(80)
	require.True(t, ok)
	y := -math.Sqrt(80*80 - 25)
	assert.InDelta(t, 5, got.X, 1e-9)
	assert.InDelta(t, y, got.Y, 1e-9, "the lower crossing is taken")
	assert.InDelta(t, 100-y, got.Z, 1e-9)

	_, ok = NewLine(r3.Vector{X: 200}, r3.Vector{Y: 1}).CircleCrossing(80)
	assert.False(t, ok, "line outside the cylinder")

	_, ok = NewLine(r3.Vector{X: 5}, r3.Vector{Z: 1}).CircleCrossing(80)
	assert.False(t, ok, "line along the beam")
}

func TestHelixParamsStraight(t *testing.T) {
	tests := []struct {
		q    float64
		want bool
	}{
		{0, true},
		{math.NaN(), true},
		{math.Inf(-1), true},
		{1e-6, false},
		{-0.02, false},
	}
	for _, tt := range tests {
		if got := (HelixParams{QOverR: tt.q}).Straight(); got != tt.want {
			t.Errorf("Straight(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
}
