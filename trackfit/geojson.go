package trackfit

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds in the transverse GeoJSON export.
const (
	FeatureTrack     = "track"
	FeatureReference = "reference"
	FeatureHits      = "hits"
)

// TransverseGeoJSON exports the transverse view of an event: one
// LineString per track through its states, one Point per track reference
// and a MultiPoint of the hits no track uses. Coordinates are in cm.
func TransverseGeoJSON(ev *Event, tracks []*Track) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	used := make(map[HitKey]bool)

	for _, t := range tracks {
		for _, k := range t.HitKeys {
			used[k] = true
		}
		props := trackProperties(t)

		if len(t.States) > 1 {
			line := make(orb.LineString, len(t.States))
			for i, s := range t.States {
				line[i] = orb.Point{s.Position.X, s.Position.Y}
			}
			f := geojson.NewFeature(line)
			f.ID = t.ID
			f.Properties = props.Clone()
			f.Properties["kind"] = FeatureTrack
			fc.Append(f)
		}

		ref := geojson.NewFeature(orb.Point{t.Reference.Position.X, t.Reference.Position.Y})
		ref.Properties = props.Clone()
		ref.Properties["kind"] = FeatureReference
		fc.Append(ref)
	}

	if ev != nil && ev.Hits != nil {
		var free orb.MultiPoint
		for _, k := range ev.Hits.Keys() {
			if used[k] {
				continue
			}
			if p, ok := ev.Hits.Position(k); ok {
				free = append(free, p.Transverse())
			}
		}
		if len(free) > 0 {
			f := geojson.NewFeature(free)
			f.Properties["kind"] = FeatureHits
			fc.Append(f)
		}
	}
	return fc
}

func trackProperties(t *Track) geojson.Properties {
	c := TrackColor(t.ID)
	return geojson.Properties{
		"id":     t.ID,
		"charge": t.Charge,
		"pt":     t.Pt(),
		"phi":    t.Phi(),
		"eta":    finite(t.Eta()),
		"chi2":   t.ChiSquare,
		"ndf":    t.NDF,
		"color":  fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
	}
}
