// Package bootstrap wires the application together: stores, classifier,
// pipeline, source adapters and the worker scheduler, all from one Config.
package bootstrap

import (
	"context"

	"sentinel/internal/adapters/config"
	noopTracker "sentinel/internal/adapters/errors/noop"
	sentryTracker "sentinel/internal/adapters/errors/sentry"
	"sentinel/internal/adapters/feeds"
	"sentinel/internal/adapters/stream"
	"sentinel/internal/classify"
	"sentinel/internal/pipeline"
	"sentinel/internal/store"
	"sentinel/internal/workers"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
	"sentinel/pkg/reconnect"
)

// Container holds all initialized application components.
type Container struct {
	Config    *config.Config
	Tracker   errors.Tracker
	Seen      *store.SeenCache
	Queue     *store.AlertQueue
	Pipeline  *pipeline.Pipeline
	Scheduler *workers.Scheduler

	// Stream is nil when no stream credentials are configured; the daemon
	// then runs on polling sources alone.
	Stream *stream.Adapter
}

// New builds the full component graph. Stores are loaded from disk so a
// restart resumes with the previous dedup window and pending alerts.
func New(cfg *config.Config) (*Container, error) {
	log := logger.Get()

	tracker := initTracker(cfg)
	logger.SetErrorTracker(tracker)

	seen := store.NewSeenCache(cfg.Data.SeenPath(), store.DefaultSeenCapacity)
	seen.Load()

	queue := store.NewAlertQueue(cfg.Data.PendingPath(), store.DefaultQueueCapacity)
	queue.Load()

	classifier := classify.New(cfg.Classify.Watchlist)
	pipe := pipeline.New(seen, queue, classifier)

	scheduler := workers.NewScheduler()
	scheduler.Register(feeds.NewRSSWorker(cfg.RSS, pipe))
	scheduler.Register(feeds.NewFinnhubWorker(cfg.Finnhub, pipe))

	var streamAdapter *stream.Adapter
	if cfg.Alpaca.Enabled() {
		backoff := reconnect.NewManager(reconnect.Config{}, log.With("component", "stream_reconnect"))
		streamAdapter = stream.New(cfg.Alpaca, pipe, backoff)
	} else {
		log.Warn("Stream credentials not configured, running on polling sources only")
	}

	return &Container{
		Config:    cfg,
		Tracker:   tracker,
		Seen:      seen,
		Queue:     queue,
		Pipeline:  pipe,
		Scheduler: scheduler,
		Stream:    streamAdapter,
	}, nil
}

// Flush persists both stores and drains the error tracker.
func (c *Container) Flush(ctx context.Context) {
	c.Pipeline.FlushStores()
	_ = c.Tracker.Flush(ctx)
}

func initTracker(cfg *config.Config) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		return noopTracker.New()
	}

	tracker, err := sentryTracker.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		logger.Warnf("Failed to initialize error tracking, falling back to noop: %v", err)
		return noopTracker.New()
	}
	return tracker
}
