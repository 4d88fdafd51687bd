package trackfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHitKeyPacking(t *testing.T) {
	tests := []struct {
		det   Detector
		layer uint8
		index uint64
	}{
		{DetectorVertex, 0, 0},
		{DetectorIntermediate, 4, 12345},
		{DetectorTPC, 54, 1<<48 - 1},
		{DetectorMicromegas, 56, 7},
	}
	for _, tt := range tests {
		k := NewHitKey(tt.det, tt.layer, tt.index)
		assert.Equal(t, tt.det, k.Detector())
		assert.Equal(t, tt.layer, k.Layer())
		assert.Equal(t, tt.index, k.Index())
	}

	// Index bits beyond the layer field are discarded.
	k := NewHitKey(DetectorTPC, 10, 1<<50|3)
	assert.Equal(t, uint8(10), k.Layer())
	assert.Equal(t, uint64(3), k.Index())

	assert.Equal(t, "tpc/10/3", k.String())
}

func TestLayerWindow(t *testing.T) {
	w := LayerWindow{Start: 0, End: 58}
	assert.True(t, w.Contains(NewHitKey(DetectorVertex, 0, 1)))
	assert.True(t, w.Contains(NewHitKey(DetectorTPC, 57, 1)))
	assert.False(t, w.Contains(NewHitKey(DetectorMicromegas, 58, 1)))

	inner := LayerWindow{Start: 7, End: 55}
	assert.False(t, inner.Contains(NewHitKey(DetectorIntermediate, 6, 0)))
}

func TestTrackKeysByDetector(t *testing.T) {
	tr := &Track{HitKeys: []HitKey{
		NewHitKey(DetectorTPC, 20, 1),
		NewHitKey(DetectorVertex, 1, 2),
		NewHitKey(DetectorTPC, 21, 3),
		NewHitKey(DetectorVertex, 2, 4),
	}}

	got := tr.KeysByDetector()
	assert.Len(t, got, 2)
	assert.Equal(t, []HitKey{tr.HitKeys[0], tr.HitKeys[2]}, got[DetectorTPC])
	assert.Equal(t, []HitKey{tr.HitKeys[1], tr.HitKeys[3]}, got[DetectorVertex])
}

func TestTrackMapReset(t *testing.T) {
	m := NewTrackMap()
	for i := 0; i < 4; i++ {
		m.Insert(&Track{ID: uint32(i)})
	}
	got, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), got.ID)

	m.Reset()
	assert.Zero(t, m.Len())
	_, ok = m.Get(2)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, cap(m.tracks), 4, "capacity is kept for the next event")
}
