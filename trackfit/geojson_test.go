package trackfit

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransverseGeoJSON(t *testing.T) {
	ev, tracks := renderFixture(t)
	fc := TransverseGeoJSON(ev, tracks)

	// Track line, its reference point and the one unassigned hit.
	require.Len(t, fc.Features, 3)

	line := fc.Features[0]
	assert.Equal(t, FeatureTrack, line.Properties["kind"])
	ls, ok := line.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, len(tracks[0].States))
	assert.Equal(t, "#00008B", line.Properties["color"])

	ref := fc.Features[1]
	assert.Equal(t, FeatureReference, ref.Properties["kind"])
	_, ok = ref.Geometry.(orb.Point)
	assert.True(t, ok)

	free := fc.Features[2]
	assert.Equal(t, FeatureHits, free.Properties["kind"])
	assert.Equal(t, orb.MultiPoint{{-30, -20}}, free.Geometry)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	back, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Equal(t, 0.0, back.Features[0].Properties.MustFloat64("id"))
}

func TestTransverseGeoJSON_Empty(t *testing.T) {
	fc := TransverseGeoJSON(nil, nil)
	assert.Empty(t, fc.Features)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
