package trackfit

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Seed skip reasons reported to metrics.
const (
	skipRemoved           = "removed"
	skipUnresolvedPrimary = "unresolved_primary"
)

// Converter turns the seeds of an event into tracks. It is safe for
// concurrent use once built.
type Converter struct {
	cfg       BuilderConfig
	positions PositionService
	surfaces  SurfaceService
	logger    *zap.Logger
	metrics   *Metrics

	linkWarn sync.Once
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records conversion metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

// NewConverter builds a converter around the hit position and surface
// services. Both are required.
func NewConverter(cfg BuilderConfig, positions PositionService, surfaces SurfaceService, opts ...Option) (*Converter, error) {
	if positions == nil {
		return nil, ErrMissingPositionService
	}
	if surfaces == nil {
		return nil, ErrMissingSurfaceService
	}
	if cfg.VertexRadius <= 0 {
		cfg.VertexRadius = DefaultVertexRadius
	}
	if cfg.ChargeGapThreshold <= 0 {
		cfg.ChargeGapThreshold = DefaultChargeGapThreshold
	}
	c := &Converter{
		cfg:       cfg,
		positions: positions,
		surfaces:  surfaces,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the builder configuration in use.
func (c *Converter) Config() BuilderConfig {
	return c.cfg
}

// Convert empties out and fills it with one track per usable seed of the
// configured collection. Ids start at 0 and skip removed seeds.
func (c *Converter) Convert(ev *Event, out *TrackMap) error {
	out.Reset()
	seeds, err := c.selectSeeds(ev)
	if err != nil {
		return err
	}
	var id uint32
	for i, s := range seeds {
		t := c.convertSeed(uint32(i), s, ev)
		if t == nil {
			continue
		}
		t.ID = id
		id++
		out.Insert(t)
	}
	c.logger.Debug("event converted",
		zap.Int64("event", ev.Number),
		zap.Int("seeds", len(seeds)),
		zap.Int("tracks", out.Len()))
	return nil
}

// ConvertParallel is Convert with seeds spread over up to workers
// goroutines. Tracks and ids are the same as Convert's.
func (c *Converter) ConvertParallel(ctx context.Context, ev *Event, out *TrackMap, workers int) error {
	out.Reset()
	seeds, err := c.selectSeeds(ev)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	built := make([]*Track, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			built[i] = c.convertSeed(uint32(i), s, ev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("convert event %d: %w", ev.Number, err)
	}

	var id uint32
	for _, t := range built {
		if t == nil {
			continue
		}
		t.ID = id
		id++
		out.Insert(t)
	}
	return nil
}

func (c *Converter) selectSeeds(ev *Event) ([]*Seed, error) {
	seeds := ev.Selected(c.cfg.Source)
	if seeds == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSeedCollection, c.cfg.Source)
	}
	if c.cfg.Source == MatchedSource && (ev.TPCSeeds == nil || ev.SiliconSeeds == nil) {
		c.linkWarn.Do(func() {
			c.logger.Warn("matched seeds link into a missing collection, affected seeds fall back or are skipped",
				zap.Bool("tpcSeeds", ev.TPCSeeds != nil),
				zap.Bool("siliconSeeds", ev.SiliconSeeds != nil))
		})
	}
	return seeds, nil
}

// convertSeed builds the track for the seed at idx, or returns nil when
// the seed yields none.
func (c *Converter) convertSeed(idx uint32, s *Seed, ev *Event) *Track {
	c.metrics.seedVisited()
	if s == nil {
		c.metrics.seedSkipped(skipRemoved)
		return nil
	}

	mode := c.cfg.Mode()
	var t *Track
	switch mode {
	case ModeStandalone:
		t = c.buildStandalone(idx, s)
	default:
		primary, secondary := c.resolvePair(s, ev)
		if primary == nil {
			c.metrics.seedSkipped(skipUnresolvedPrimary)
			c.logger.Debug("matched seed has no live primary seed",
				zap.Uint32("index", idx), zap.Uint32("primary", s.PrimaryIndex))
			return nil
		}
		if mode == ModeMatchedCosmic {
			t = c.buildMatchedCosmic(s, primary, secondary)
		} else {
			t = c.buildMatched(s, primary, secondary)
		}
	}
	c.metrics.trackBuilt(mode, t)
	return t
}
