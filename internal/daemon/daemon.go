package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel/internal/adapters/config"
	"sentinel/internal/bootstrap"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

const streamShutdownTimeout = 10 * time.Second

// Run executes the daemon in the foreground: refuses to start while another
// instance is alive, claims the pid file, starts the stream adapter and the
// polling scheduler, and tears everything down on SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	pidPath := cfg.Data.PIDPath()
	if pid, ok := Running(pidPath); ok {
		return errors.Wrapf(errors.ErrAlreadyRunning, "pid %d", pid)
	}

	if err := WritePIDFile(pidPath, os.Getpid()); err != nil {
		return err
	}
	defer RemovePIDFile(pidPath)

	c, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}

	log := logger.Get().With("component", "daemon")
	log.Infow("📰 News daemon starting",
		"pid", os.Getpid(),
		"stream", c.Stream != nil,
		"pending_alerts", c.Queue.Len(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var streamDone chan struct{}
	if c.Stream != nil {
		streamDone = make(chan struct{})
		go func() {
			defer close(streamDone)
			protect(log, "stream_adapter", func() { c.Stream.Run(ctx) })
		}()
	}

	if err := c.Scheduler.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("Shutdown signal received", "signal", sig.String())

	cancel()

	if err := c.Scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	if streamDone != nil {
		select {
		case <-streamDone:
		case <-time.After(streamShutdownTimeout):
			log.Warn("Stream shutdown timed out")
		}
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	c.Flush(flushCtx)

	log.Info("Daemon stopped")
	return nil
}

// protect runs fn with panic recovery so a failing component degrades the
// daemon instead of killing the process. The scheduler applies the same
// recovery per worker pass.
func protect(log *logger.Logger, component string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Component panicked",
				"component", component,
				"panic", r,
			)
		}
	}()
	fn()
}
