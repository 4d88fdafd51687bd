package trackfit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the converter does. A nil *Metrics records nothing.
type Metrics struct {
	seedsProcessed    prometheus.Counter
	seedsSkipped      *prometheus.CounterVec
	tracksBuilt       *prometheus.CounterVec
	hitsDropped       *prometheus.CounterVec
	degenerateCharge  prometheus.Counter
	unmatchedFallback prometheus.Counter
	straightSeeds     prometheus.Counter
	chi2PerNDF        prometheus.Histogram
}

// NewMetrics registers the converter metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		seedsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "seedtrack_seeds_processed_total",
			Help: "Seed entries visited, including removed entries",
		}),
		seedsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seedtrack_seeds_skipped_total",
			Help: "Seed entries that produced no track, by reason",
		}, []string{"reason"}), // "removed" or "unresolved_primary"
		tracksBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seedtrack_tracks_built_total",
			Help: "Tracks built, by processing mode",
		}, []string{"mode"}),
		hitsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seedtrack_hits_dropped_total",
			Help: "Hits that produced no trajectory state, by reason",
		}, []string{"reason"}),
		degenerateCharge: f.NewCounter(prometheus.CounterOpts{
			Name: "seedtrack_cosmic_charge_degenerate_total",
			Help: "Cosmic seeds whose charge fell back to the default",
		}),
		unmatchedFallback: f.NewCounter(prometheus.CounterOpts{
			Name: "seedtrack_unmatched_fallback_total",
			Help: "Matched seeds without a resolvable secondary seed",
		}),
		straightSeeds: f.NewCounter(prometheus.CounterOpts{
			Name: "seedtrack_straight_seeds_total",
			Help: "Seeds without usable curvature, fitted as straight lines",
		}),
		chi2PerNDF: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "seedtrack_track_chi2_per_ndf",
			Help:    "Track chi-square per degree of freedom",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) seedVisited() {
	if m != nil {
		m.seedsProcessed.Inc()
	}
}

func (m *Metrics) seedSkipped(reason string) {
	if m != nil {
		m.seedsSkipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) trackBuilt(mode Mode, t *Track) {
	if m == nil {
		return
	}
	m.tracksBuilt.WithLabelValues(mode.String()).Inc()
	if t.NDF > 0 {
		m.chi2PerNDF.Observe(t.ChiSquarePerNDF())
	}
}

func (m *Metrics) hitDropped(reason string) {
	if m != nil {
		m.hitsDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) chargeDegenerate() {
	if m != nil {
		m.degenerateCharge.Inc()
	}
}

func (m *Metrics) matchFallback() {
	if m != nil {
		m.unmatchedFallback.Inc()
	}
}

func (m *Metrics) straightSeed() {
	if m != nil {
		m.straightSeeds.Inc()
	}
}
