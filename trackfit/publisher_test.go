package trackfit

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertedTracks(t *testing.T, n int) []*Track {
	t.Helper()
	table := NewHitTable()
	seeds := make([]*Seed, n)
	for i := range seeds {
		h := circleThroughOrigin(120+float64(i)*40, 0.5+float64(i), 0.2, 0)
		seeds[i] = tpcSeed(table, uint8(10*i), h, 5)
	}
	out := NewTrackMap()
	require.NoError(t, newTestConverter(t, DefaultBuilderConfig(), table).Convert(&Event{Hits: table, TPCSeeds: seeds}, out))
	return out.Tracks()
}

func TestNewPublisher(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	p := NewPublisher(nil, "", nil)
	assert.Equal(t, "seedtrack", p.publishPrefix)
	assert.Equal(t, byte(1), p.qos)
	assert.False(t, p.retain)
	_, err := uuid.Parse(p.RunID())
	assert.NoError(t, err, "run id is a UUID")
	assert.NotEqual(t, p.RunID(), NewPublisher(nil, "", nil).RunID())

	t.Setenv("MQTT_PUBLISH_PREFIX", "env/prefix")
	assert.Equal(t, "env/prefix", NewPublisher(nil, "config", nil).publishPrefix)
}

func TestPublisher_SetQoS(t *testing.T) {
	p := NewPublisher(nil, "x", nil)
	p.SetQoS(2)
	assert.Equal(t, byte(2), p.qos)
	p.SetQoS(3)
	assert.Equal(t, byte(2), p.qos, "invalid QoS is ignored")
	p.SetRetain(true)
	assert.True(t, p.retain)
}

func TestPublisher_PublishEvent(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	mc := NewMockClient()
	mc.SetConnected(true)
	p := NewPublisher(mc, "reco", nil)

	tracks := convertedTracks(t, 2)
	require.NoError(t, p.PublishEvent(42, tracks))

	msgs := mc.Published()
	require.Len(t, msgs, 3)
	assert.Equal(t, "reco/events", msgs[0].Topic)
	assert.Equal(t, "reco/tracks/42/0", msgs[1].Topic)
	assert.Equal(t, "reco/tracks/42/1", msgs[2].Topic)
	for _, m := range msgs {
		assert.Equal(t, byte(1), m.QoS)
		assert.False(t, m.Retain)
	}

	var rec EventRecord
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &rec))
	assert.Equal(t, p.RunID(), rec.RunID)
	assert.Equal(t, int64(42), rec.Event)
	assert.Len(t, rec.Tracks, 2)

	var summary TrackSummary
	require.NoError(t, json.Unmarshal(msgs[2].Payload, &summary))
	assert.Equal(t, p.RunID(), summary.RunID)
	assert.Equal(t, uint32(1), summary.ID)
	assert.InDelta(t, tracks[1].Pt(), summary.Pt, 1e-9)
	assert.Equal(t, tracks[1].NDF, summary.NDF)
	assert.NotZero(t, summary.Timestamp)

	assert.Equal(t, 1, p.Published())
}

func TestPublisher_PublishEmptyEvent(t *testing.T) {
	mc := NewMockClient()
	mc.SetConnected(true)
	p := NewPublisher(mc, "reco", nil)

	require.NoError(t, p.PublishEvent(1, nil))
	msgs := mc.Published()
	require.Len(t, msgs, 1)

	var rec EventRecord
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &rec))
	assert.NotNil(t, rec.Tracks, "an empty event publishes an empty list")
}

func TestPublisher_NotConnected(t *testing.T) {
	assert.Error(t, NewPublisher(nil, "reco", nil).PublishEvent(1, nil))

	mc := NewMockClient()
	p := NewPublisher(mc, "reco", nil)
	assert.Error(t, p.PublishEvent(1, nil))
	assert.Empty(t, mc.Published())
	assert.Zero(t, p.Published())
}

func TestPublisher_PublishError(t *testing.T) {
	mc := NewMockClient()
	mc.SetConnected(true)
	mc.SetPublishError(errors.New("publish failed"))
	p := NewPublisher(mc, "reco", nil)

	err := p.PublishEvent(3, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reco/events")
	assert.Zero(t, p.Published())
}
