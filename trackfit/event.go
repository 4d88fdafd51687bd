package trackfit

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
)

// Event is the input of one conversion: the hits of the event and its seed
// collections. A nil collection is missing; an empty one is present but
// holds no seeds. Nil entries are seeds removed upstream.
type Event struct {
	Number       int64
	Hits         *HitTable
	TPCSeeds     []*Seed
	SiliconSeeds []*Seed
	MatchedSeeds []*Seed
}

// Selected returns the collection read under the given source.
func (e *Event) Selected(src SeedSource) []*Seed {
	switch src {
	case SiliconSource:
		return e.SiliconSeeds
	case TPCSource:
		return e.TPCSeeds
	case MatchedSource:
		return e.MatchedSeeds
	default:
		return nil
	}
}

type vec3 [3]float64

func (v vec3) vector() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

func toVec3(v r3.Vector) vec3 { return vec3{v.X, v.Y, v.Z} }

type surfaceWire struct {
	Center vec3 `json:"center"`
	Normal vec3 `json:"normal"`
}

// hitWire is one hit of an event document. A hit without an explicit
// surface gets a barrel surface through it when Radial is set.
type hitWire struct {
	Key                  HitKey       `json:"key"`
	Position             vec3         `json:"position"`
	TransverseVariance   float64      `json:"transverseVariance"`
	LongitudinalVariance float64      `json:"longitudinalVariance"`
	Surface              *surfaceWire `json:"surface,omitempty"`
	Radial               bool         `json:"radial,omitempty"`
}

type eventWire struct {
	Event        int64     `json:"event"`
	Hits         []hitWire `json:"hits"`
	TPCSeeds     []*Seed   `json:"tpcSeeds"`
	SiliconSeeds []*Seed   `json:"siliconSeeds"`
	MatchedSeeds []*Seed   `json:"matchedSeeds"`
}

// UnmarshalJSON decodes a seed, defaulting an absent crossing to
// CrossingUnknown and absent collection links to NoIndex.
func (s *Seed) UnmarshalJSON(data []byte) error {
	type plain Seed
	w := struct {
		*plain
		Crossing       *int16  `json:"crossing"`
		PrimaryIndex   *uint32 `json:"primaryIndex"`
		SecondaryIndex *uint32 `json:"secondaryIndex"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Crossing = CrossingUnknown
	if w.Crossing != nil {
		s.Crossing = *w.Crossing
	}
	s.PrimaryIndex = NoIndex
	if w.PrimaryIndex != nil {
		s.PrimaryIndex = *w.PrimaryIndex
	}
	s.SecondaryIndex = NoIndex
	if w.SecondaryIndex != nil {
		s.SecondaryIndex = *w.SecondaryIndex
	}
	return nil
}

// ParseEventJSON decodes an event document.
func ParseEventJSON(data []byte) (*Event, error) {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing event JSON: %w", err)
	}
	hits := NewHitTable()
	for _, h := range w.Hits {
		pos := HitPosition{
			Global:               h.Position.vector(),
			TransverseVariance:   h.TransverseVariance,
			LongitudinalVariance: h.LongitudinalVariance,
		}
		var surf *Surface
		switch {
		case h.Surface != nil:
			surf = &Surface{Center: h.Surface.Center.vector(), Normal: h.Surface.Normal.vector()}
		case h.Radial:
			rs := RadialSurface(pos.Global)
			surf = &rs
		}
		hits.Add(h.Key, pos, surf)
	}
	return &Event{
		Number:       w.Event,
		Hits:         hits,
		TPCSeeds:     w.TPCSeeds,
		SiliconSeeds: w.SiliconSeeds,
		MatchedSeeds: w.MatchedSeeds,
	}, nil
}

// DecodeEvent decodes an event payload given either as raw JSON or as
// zlib-compressed JSON.
func DecodeEvent(data []byte) (*Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty event payload")
	}
	if data[0] == '{' {
		return ParseEventJSON(data)
	}
	raw, err := inflateZlib(data)
	if err != nil {
		return nil, fmt.Errorf("unknown event format: not JSON or zlib-compressed JSON")
	}
	return ParseEventJSON(raw)
}

// ReadEventFile reads and decodes an event file.
func ReadEventFile(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}
	return DecodeEvent(data)
}

func inflateZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zlib reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing zlib data: %w", err)
	}
	return out, nil
}

// StateRecord is the wire form of a trajectory state.
type StateRecord struct {
	PathLength float64 `json:"pathLength"`
	Position   vec3    `json:"position"`
	Momentum   vec3    `json:"momentum"`
	Key        *HitKey `json:"key,omitempty"`
}

// TrackRecord is the wire form of a track.
type TrackRecord struct {
	ID        uint32              `json:"id"`
	Charge    int                 `json:"charge"`
	Crossing  int16               `json:"crossing"`
	ChiSquare float64             `json:"chi2"`
	NDF       int                 `json:"ndf"`
	Pt        float64             `json:"pt"`
	Phi       float64             `json:"phi"`
	Eta       float64             `json:"eta"`
	Reference StateRecord         `json:"reference"`
	States    []StateRecord       `json:"states"`
	HitKeys   map[string][]HitKey `json:"hitKeys"`
	Seeds     map[string]uint32   `json:"seeds,omitempty"`
}

// EventRecord is the wire form of a converted event.
type EventRecord struct {
	RunID  string        `json:"runId,omitempty"`
	Event  int64         `json:"event"`
	Tracks []TrackRecord `json:"tracks"`
}

func stateRecord(s TrajectoryState) StateRecord {
	r := StateRecord{
		PathLength: s.PathLength,
		Position:   toVec3(s.Position),
		Momentum:   toVec3(s.Momentum),
	}
	if s.HasKey {
		k := s.Key
		r.Key = &k
	}
	return r
}

// finite maps the infinities JSON cannot carry to the largest float.
func finite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// Record converts the track to its wire form.
func (t *Track) Record() TrackRecord {
	r := TrackRecord{
		ID:        t.ID,
		Charge:    t.Charge,
		Crossing:  t.Crossing,
		ChiSquare: finite(t.ChiSquare),
		NDF:       t.NDF,
		Pt:        finite(t.Pt()),
		Phi:       t.Phi(),
		Eta:       finite(t.Eta()),
		Reference: stateRecord(t.Reference),
		States:    make([]StateRecord, len(t.States)),
		HitKeys:   make(map[string][]HitKey),
	}
	for i, s := range t.States {
		r.States[i] = stateRecord(s)
	}
	for det, keys := range t.KeysByDetector() {
		r.HitKeys[det.String()] = keys
	}
	if t.PrimarySeed != NoIndex || t.SecondarySeed != NoIndex {
		r.Seeds = make(map[string]uint32)
		if t.PrimarySeed != NoIndex {
			r.Seeds["primary"] = t.PrimarySeed
		}
		if t.SecondarySeed != NoIndex {
			r.Seeds["secondary"] = t.SecondarySeed
		}
	}
	return r
}

// NewEventRecord converts the tracks of an event to their wire form.
func NewEventRecord(runID string, event int64, tracks []*Track) EventRecord {
	out := EventRecord{RunID: runID, Event: event, Tracks: make([]TrackRecord, len(tracks))}
	for i, t := range tracks {
		out.Tracks[i] = t.Record()
	}
	return out
}
