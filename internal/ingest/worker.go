// Package ingest feeds measurements from MQTT and from the measurement
// service poller into the correlation pipeline.
package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/correlation"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/metrics"
	"appliance-alarm-backend/internal/model"
)

// Correlator runs one appliance report through the alarm pipeline.
type Correlator interface {
	OnMeasurement(ctx context.Context, deviceName string, samples ...model.Sample) (*correlation.Result, error)
}

// Job is one measurement waiting for correlation.
type Job struct {
	Source      string
	Measurement measurement.Measurement
}

// WorkerPool manages a pool of workers correlating measurements.
type WorkerPool struct {
	size       int
	jobs       chan Job
	correlator Correlator
	logger     *zap.Logger
}

// NewWorkerPool creates a new worker pool. queueSize bounds how many jobs
// may wait before Dispatch blocks.
func NewWorkerPool(size, queueSize int, correlator Correlator, logger *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		size:       size,
		jobs:       make(chan Job, queueSize), // Buffered channel
		correlator: correlator,
		logger:     logger.Named("ingest"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case job := <-wp.jobs:
			wp.process(ctx, job)
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a job, blocking while the queue is full.
func (wp *WorkerPool) Dispatch(ctx context.Context, job Job) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

func (wp *WorkerPool) process(ctx context.Context, job Job) {
	m := job.Measurement
	samples := m.Samples()
	if len(samples) == 0 {
		wp.logger.Debug("measurement without samples", zap.String("name", m.Name), zap.String("source", job.Source))
		return
	}
	for range samples {
		metrics.IncMeasurement(job.Source)
	}

	res, err := wp.correlator.OnMeasurement(ctx, m.Name, samples...)
	switch {
	case err == nil:
		if len(res.Alarms) > 0 {
			wp.logger.Debug("measurement raised alarms", zap.String("name", m.Name), zap.Int("alarms", len(res.Alarms)))
		}
	case apperr.KindOf(err) == apperr.KindNotFound:
		wp.logger.Warn("measurement not attributed", zap.String("name", m.Name), zap.String("source", job.Source), zap.Error(err))
	case errors.Is(err, context.Canceled):
		// shutting down
	default:
		wp.logger.Error("correlation failed", zap.String("name", m.Name), zap.String("source", job.Source), zap.Error(err))
	}
}
