package trackfit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackSummary is the per-track message published next to the full event.
type TrackSummary struct {
	RunID     string  `json:"runId"`
	Event     int64   `json:"event"`
	ID        uint32  `json:"id"`
	Charge    int     `json:"charge"`
	Crossing  int16   `json:"crossing"`
	Pt        float64 `json:"pt"`
	Phi       float64 `json:"phi"`
	Eta       float64 `json:"eta"`
	ChiSquare float64 `json:"chi2"`
	NDF       int     `json:"ndf"`
	Timestamp int64   `json:"timestamp"`
}

// Publisher publishes converted events to MQTT. Every publisher carries a
// run id that is stamped on its messages.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	runID         string
	qos           byte
	retain        bool
	logger        *zap.Logger

	mu        sync.RWMutex
	published int
}

// NewPublisher creates a publisher. The prefix falls back to
// MQTT_PUBLISH_PREFIX and then to "seedtrack". A nil client disables
// publishing.
func NewPublisher(client mqtt.Client, prefix string, logger *zap.Logger) *Publisher {
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		prefix = v
	}
	if prefix == "" {
		prefix = "seedtrack"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		runID:         uuid.NewString(),
		qos:           1,
		retain:        false,
		logger:        logger,
	}
}

// RunID returns the id stamped on published messages.
func (p *Publisher) RunID() string {
	return p.runID
}

// PublishEvent publishes the full event to {prefix}/events and one
// summary per track to {prefix}/tracks/{event}/{id}.
func (p *Publisher) PublishEvent(event int64, tracks []*Track) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	rec := NewEventRecord(p.runID, event, tracks)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling event %d: %w", event, err)
	}
	if err := p.publish(fmt.Sprintf("%s/events", p.publishPrefix), payload); err != nil {
		return err
	}

	now := time.Now().Unix()
	for _, t := range rec.Tracks {
		summary := TrackSummary{
			RunID:     p.runID,
			Event:     event,
			ID:        t.ID,
			Charge:    t.Charge,
			Crossing:  t.Crossing,
			Pt:        t.Pt,
			Phi:       t.Phi,
			Eta:       t.Eta,
			ChiSquare: t.ChiSquare,
			NDF:       t.NDF,
			Timestamp: now,
		}
		payload, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshaling track %d: %w", t.ID, err)
		}
		if err := p.publish(fmt.Sprintf("%s/tracks/%d/%d", p.publishPrefix, event, t.ID), payload); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	p.logger.Debug("published event", zap.Int64("event", event), zap.Int("tracks", len(tracks)))
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// Published returns the number of events published.
func (p *Publisher) Published() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
