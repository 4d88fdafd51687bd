package trackfit

// TrackMap holds the tracks of a single event in id order.
type TrackMap struct {
	tracks []*Track
}

// NewTrackMap creates an empty track map.
func NewTrackMap() *TrackMap {
	return &TrackMap{}
}

// Reset empties the map for the next event, keeping its capacity.
func (m *TrackMap) Reset() {
	clear(m.tracks)
	m.tracks = m.tracks[:0]
}

// Insert appends a track. Callers insert in increasing id order.
func (m *TrackMap) Insert(t *Track) {
	m.tracks = append(m.tracks, t)
}

// Len returns the number of tracks.
func (m *TrackMap) Len() int {
	return len(m.tracks)
}

// Get returns the track with the given id.
func (m *TrackMap) Get(id uint32) (*Track, bool) {
	if int(id) < len(m.tracks) && m.tracks[id].ID == id {
		return m.tracks[id], true
	}
	for _, t := range m.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Tracks returns the tracks in id order. The returned slice is a copy.
func (m *TrackMap) Tracks() []*Track {
	out := make([]*Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}
