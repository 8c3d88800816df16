package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/metrics"
)

// Poller pulls the current measurement set on an interval and queues the
// reports that are newer than what it has already seen.
type Poller struct {
	cfg        config.PollerConfig
	source     measurement.Source
	dispatcher Dispatcher
	logger     *zap.Logger

	mu         sync.Mutex
	watermarks *Watermarks
	primed     bool
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithWatermarks shares marks with other correlation paths, so a report
// they already handled is not queued again when it shows up upstream.
func WithWatermarks(marks *Watermarks) PollerOption {
	return func(p *Poller) {
		if marks != nil {
			p.watermarks = marks
		}
	}
}

// NewPoller creates a new poller.
func NewPoller(cfg config.PollerConfig, source measurement.Source, dispatcher Dispatcher, logger *zap.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		cfg:        cfg,
		source:     source,
		dispatcher: dispatcher,
		logger:     logger.Named("poller"),
		watermarks: NewWatermarks(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts the polling process in a loop.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		p.logger.Info("poller is disabled, not starting")
		return
	}
	p.logger.Info("starting poller", zap.Duration("interval", p.cfg.Interval))

	p.PollOnce(ctx)

	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller shutting down")
			return
		case <-timer.C:
			p.PollOnce(ctx)
			timer.Reset(p.cfg.Interval)
		}
	}
}

// PollOnce performs a single poll and returns how many reports were queued.
// The first successful poll only records watermarks, so history already
// present upstream at startup is not replayed.
func (p *Poller) PollOnce(ctx context.Context) int {
	list, err := p.source.GetMeasurements(ctx)
	if err != nil {
		p.logger.Error("poll failed", zap.Error(err))
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var fresh []measurement.Measurement
	for _, m := range list {
		if m.Name == "" || m.Timestamp.IsZero() {
			continue
		}
		if !p.watermarks.Advance(m.Name, m.Timestamp) {
			continue
		}
		if p.primed {
			fresh = append(fresh, m)
		}
	}

	if !p.primed {
		p.primed = true
		p.logger.Info("poller baseline established", zap.Int("appliances", p.watermarks.Len()))
		return 0
	}

	queued := 0
	for _, m := range fresh {
		if err := p.dispatcher.Dispatch(ctx, Job{Source: metrics.SourcePoller, Measurement: m}); err != nil {
			p.logger.Warn("poll cycle interrupted", zap.Error(err))
			break
		}
		queued++
	}
	if queued > 0 {
		p.logger.Debug("poll cycle finished", zap.Int("queued", queued))
	}
	return queued
}
