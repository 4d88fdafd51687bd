package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kwv/seedtrack/trackfit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *trackfit.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *trackfit.Metrics
	Store      *trackfit.EventStore
	MQTTClient *trackfit.MQTTClient
	Publisher  *trackfit.Publisher

	hits      *eventHits
	convMu    sync.Mutex
	converter *trackfit.Converter
}

// ConvertOptions are the inputs and outputs of a single conversion.
type ConvertOptions struct {
	Event   string // file path or http(s) URL
	Output  string // "-" for stdout
	SVG     string
	PNG     string
	GeoJSON string
}

// NewApp creates a new App instance
func NewApp(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &App{
		Logger:   logger,
		Registry: reg,
		Metrics:  trackfit.NewMetrics(reg),
		Store:    trackfit.NewEventStore(),
		hits:     &eventHits{},
	}
}

// LoadConfig reads the configuration file and builds the converter.
func (a *App) LoadConfig(path string) error {
	config, err := trackfit.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return a.SetConfig(config)
}

// SetConfig installs config and builds the converter it describes.
func (a *App) SetConfig(config *trackfit.Config) error {
	bc, err := config.BuilderConfig()
	if err != nil {
		return err
	}
	conv, err := trackfit.NewConverter(bc, a.hits, a.hits,
		trackfit.WithLogger(a.Logger),
		trackfit.WithMetrics(a.Metrics))
	if err != nil {
		return err
	}
	a.Config = config
	a.converter = conv
	a.Logger.Info("configuration loaded",
		zap.Stringer("field", config.Field),
		zap.Stringer("source", bc.Source),
		zap.Stringer("mode", bc.Mode()),
		zap.Int("workers", config.Workers))
	return nil
}

// ConvertEvent converts one event. Conversions are serialized; each one
// reads the hits of its own event.
func (a *App) ConvertEvent(ctx context.Context, ev *trackfit.Event) ([]*trackfit.Track, error) {
	if a.converter == nil {
		return nil, errors.New("no configuration loaded")
	}
	if ev.Hits == nil {
		ev.Hits = trackfit.NewHitTable()
	}

	a.convMu.Lock()
	defer a.convMu.Unlock()
	a.hits.set(ev.Hits)
	defer a.hits.set(nil)

	out := trackfit.NewTrackMap()
	var err error
	if a.Config.Workers > 1 {
		err = a.converter.ConvertParallel(ctx, ev, out, a.Config.Workers)
	} else {
		err = a.converter.Convert(ev, out)
	}
	if err != nil {
		return nil, err
	}
	return out.Tracks(), nil
}

// RunConvert converts a single event and writes the track records and the
// requested displays.
func (a *App) RunConvert(ctx context.Context, opts ConvertOptions, stdout io.Writer) error {
	ev, err := loadEvent(ctx, opts.Event)
	if err != nil {
		return err
	}
	tracks, err := a.ConvertEvent(ctx, ev)
	if err != nil {
		return err
	}
	a.Logger.Info("event converted", zap.Int64("event", ev.Number), zap.Int("tracks", len(tracks)))

	rec := trackfit.NewEventRecord("", ev.Number, tracks)
	if err := writeRecord(opts.Output, rec, stdout); err != nil {
		return err
	}

	render := a.Config.RenderOptions()
	if opts.SVG != "" {
		if err := writeFile(opts.SVG, trackfit.NewVectorRenderer(ev, tracks, render).RenderToSVG); err != nil {
			return fmt.Errorf("writing SVG: %w", err)
		}
		a.Logger.Info("display written", zap.String("path", opts.SVG))
	}
	if opts.GeoJSON != "" {
		fc := trackfit.TransverseGeoJSON(ev, tracks)
		if err := writeFile(opts.GeoJSON, func(w io.Writer) error { return json.NewEncoder(w).Encode(fc) }); err != nil {
			return fmt.Errorf("writing GeoJSON: %w", err)
		}
		a.Logger.Info("display written", zap.String("path", opts.GeoJSON))
	}
	if opts.PNG != "" {
		if err := trackfit.NewRasterRenderer(ev, tracks, render).SavePNG(opts.PNG); err != nil {
			return fmt.Errorf("writing PNG: %w", err)
		}
		a.Logger.Info("display written", zap.String("path", opts.PNG))
	}
	return nil
}

// loadEvent reads an event from a file or, for http(s) sources, a URL.
func loadEvent(ctx context.Context, src string) (*trackfit.Event, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return trackfit.FetchEvent(ctx, src)
	}
	return trackfit.ReadEventFile(src)
}

func writeRecord(path string, rec trackfit.EventRecord, stdout io.Writer) error {
	encode := func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	if path == "" || path == "-" {
		return encode(stdout)
	}
	if err := writeFile(path, encode); err != nil {
		return fmt.Errorf("writing tracks: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// handleEvent is the MQTT event handler: convert, keep for HTTP, publish.
func (a *App) handleEvent(ctx context.Context, topic string, ev *trackfit.Event, err error) {
	if err != nil {
		a.Store.RecordFailure()
		a.Logger.Warn("dropping undecodable event", zap.String("topic", topic), zap.Error(err))
		return
	}
	tracks, err := a.ConvertEvent(ctx, ev)
	if err != nil {
		a.Store.RecordFailure()
		a.Logger.Error("event conversion failed", zap.Int64("event", ev.Number), zap.Error(err))
		return
	}
	a.Store.Update(ev, tracks)
	a.Logger.Debug("event converted", zap.Int64("event", ev.Number), zap.Int("tracks", len(tracks)))

	if a.Publisher != nil {
		if err := a.Publisher.PublishEvent(ev.Number, tracks); err != nil {
			a.Logger.Warn("publishing tracks failed", zap.Int64("event", ev.Number), zap.Error(err))
		}
	}
}

// RunService subscribes to the event topic and serves the latest event
// over HTTP until ctx is done.
func (a *App) RunService(ctx context.Context) error {
	if err := a.Config.ValidateService(); err != nil {
		return err
	}

	handler := func(topic string, ev *trackfit.Event, err error) {
		a.handleEvent(ctx, topic, ev, err)
	}
	a.MQTTClient = trackfit.NewMQTTClient(a.Config.MQTT, handler, a.Logger)
	if a.MQTTClient == nil {
		return errors.New("MQTT broker not configured")
	}
	a.Publisher = trackfit.NewPublisher(a.MQTTClient.Client(), a.Config.MQTT.PublishPrefix, a.Logger)
	a.MQTTClient.Start(ctx.Done())

	addr := fmt.Sprintf("0.0.0.0:%d", a.Config.HTTPPort())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("HTTP listen on %s: %w", addr, err)
	}
	a.Logger.Info("service running",
		zap.String("http", ln.Addr().String()),
		zap.String("eventTopic", a.Config.MQTT.EventTopic),
		zap.String("runId", a.Publisher.RunID()))

	err = a.serveHTTP(ctx, ln)
	a.MQTTClient.Disconnect()
	a.Logger.Info("service stopped")
	return err
}

// serveHTTP serves the endpoints on ln until ctx is done.
func (a *App) serveHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           newHTTPServer(a.Store, a.runID(), a.Config.RenderOptions(), a.Registry, a.Logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) runID() string {
	if a.Publisher == nil {
		return ""
	}
	return a.Publisher.RunID()
}

// eventHits serves the hits of the event being converted to the
// long-lived converter.
type eventHits struct {
	cur atomic.Pointer[trackfit.HitTable]
}

func (h *eventHits) set(t *trackfit.HitTable) {
	h.cur.Store(t)
}

func (h *eventHits) Position(key trackfit.HitKey) (trackfit.HitPosition, bool) {
	if t := h.cur.Load(); t != nil {
		return t.Position(key)
	}
	return trackfit.HitPosition{}, false
}

func (h *eventHits) Surface(key trackfit.HitKey) (trackfit.Surface, bool) {
	if t := h.cur.Load(); t != nil {
		return t.Surface(key)
	}
	return trackfit.Surface{}, false
}
