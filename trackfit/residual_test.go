package trackfit

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestNewResidual(t *testing.T) {
	hit := HitPosition{
		Global:               r3.Vector{X: 3, Y: 4, Z: 10},
		TransverseVariance:   0.25,
		LongitudinalVariance: 4,
	}
	x := r3.Vector{X: 3, Y: 4.5, Z: 8}

	r := NewResidual(hit, x)
	assert.InDelta(t, 0.5, r.Transverse, 1e-12)
	dr := 5 - math.Hypot(3, 4.5)
	assert.InDelta(t, math.Hypot(dr, 2), r.Longitudinal, 1e-12)

	want := 0.25/0.25 + (dr*dr+4)/4
	assert.InDelta(t, want, r.ChiSquare(), 1e-12)
}

func TestResidualAccumulatorNDF(t *testing.T) {
	tests := []struct {
		hits int
		ndf  int
	}{
		{0, -5},
		{2, -1},
		{3, 1},
		{5, 5},
		{10, 15},
	}
	for _, tt := range tests {
		var acc ResidualAccumulator
		for i := 0; i < tt.hits; i++ {
			acc.Add(Residual{TransverseVariance: 1, LongitudinalVariance: 1})
		}
		assert.Equal(t, tt.ndf, acc.NDF(), "%d hits", tt.hits)
		assert.Equal(t, tt.hits, acc.Hits())
		assert.Zero(t, acc.ChiSquare())
	}
}

func TestResidualAccumulatorRejectsUnweightedHits(t *testing.T) {
	var acc ResidualAccumulator
	assert.True(t, acc.Add(Residual{Transverse: 1, Longitudinal: 2, TransverseVariance: 1, LongitudinalVariance: 2}))
	assert.False(t, acc.Add(Residual{Transverse: 1, TransverseVariance: 0, LongitudinalVariance: 1}))
	assert.False(t, acc.Add(Residual{Transverse: 1, TransverseVariance: 1, LongitudinalVariance: -1}))
	assert.False(t, acc.Add(Residual{Transverse: 1, TransverseVariance: math.NaN(), LongitudinalVariance: 1}))

	assert.Equal(t, 1, acc.Hits())
	assert.InDelta(t, 1+4.0/2, acc.ChiSquare(), 1e-12)
}
