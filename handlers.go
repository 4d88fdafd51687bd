package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kwv/seedtrack/trackfit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(store *trackfit.EventStore, runID string, render trackfit.RenderConfig, reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("health request", zap.String("remote", r.RemoteAddr))
		converted, failed := store.Counts()
		_, hasEvent := store.Latest()
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			RunID     string    `json:"runId,omitempty"`
			HasEvent  bool      `json:"hasEvent"`
			Converted int       `json:"converted"`
			Failed    int       `json:"failed"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			RunID:     runID,
			HasEvent:  hasEvent,
			Converted: converted,
			Failed:    failed,
		}
		writeJSON(w, status, logger)
	})

	// Tracks of the latest event
	mux.HandleFunc("/tracks", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := store.Latest()
		if !ok {
			http.Error(w, "No event converted yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, trackfit.NewEventRecord(runID, snap.Event.Number, snap.Tracks), logger)
	})

	// Transverse view of the latest event as GeoJSON
	mux.HandleFunc("/tracks.geojson", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := store.Latest()
		if !ok {
			http.Error(w, "No event converted yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(w).Encode(trackfit.TransverseGeoJSON(snap.Event, snap.Tracks)); err != nil {
			logger.Error("encoding GeoJSON", zap.Error(err))
		}
	})

	// Transverse display of the latest event
	mux.HandleFunc("/event.svg", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := store.Latest()
		if !ok {
			http.Error(w, "No event converted yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := trackfit.NewVectorRenderer(snap.Event, snap.Tracks, render).RenderToSVG(w); err != nil {
			logger.Error("rendering SVG", zap.Error(err))
		}
	})

	// Labelled raster display; ?style=vector rasterizes the SVG drawing instead
	mux.HandleFunc("/event.png", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := store.Latest()
		if !ok {
			http.Error(w, "No event converted yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		var err error
		if r.URL.Query().Get("style") == "vector" {
			err = trackfit.NewVectorRenderer(snap.Event, snap.Tracks, render).RenderToPNG(w)
		} else {
			err = trackfit.NewRasterRenderer(snap.Event, snap.Tracks, render).WritePNG(w)
		}
		if err != nil {
			logger.Error("rendering PNG", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

func writeJSON(w http.ResponseWriter, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding JSON response", zap.Error(err))
	}
}
