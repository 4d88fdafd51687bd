package trackfit

import (
	"sync"
	"time"
)

// Snapshot is a converted event as kept for the HTTP endpoints.
type Snapshot struct {
	Event     *Event
	Tracks    []*Track
	Converted time.Time
}

// EventStore keeps the most recently converted event. It is safe for
// concurrent use.
type EventStore struct {
	mu     sync.RWMutex
	latest *Snapshot
	count  int
	failed int
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Update replaces the latest event.
func (s *EventStore) Update(ev *Event, tracks []*Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &Snapshot{Event: ev, Tracks: tracks, Converted: time.Now()}
	s.count++
}

// RecordFailure counts an event that could not be converted.
func (s *EventStore) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Latest returns the latest event, or false before the first one.
func (s *EventStore) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	snap := *s.latest
	snap.Tracks = append([]*Track(nil), s.latest.Tracks...)
	return snap, true
}

// Counts returns the number of converted and failed events.
func (s *EventStore) Counts() (converted, failed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, s.failed
}
