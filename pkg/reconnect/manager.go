package reconnect

import (
	"context"
	"sync"
	"time"

	"sentinel/pkg/logger"
)

// Manager tracks reconnection backoff for a single long-lived connection.
// Delays grow exponentially per consecutive failure and reset to the minimum
// the moment a connection is re-established.
type Manager struct {
	minBackoff time.Duration
	maxBackoff time.Duration
	multiplier float64

	mu                  sync.Mutex
	currentBackoff      time.Duration
	consecutiveFailures int
	totalReconnects     int

	log *logger.Logger
}

// Config configures the reconnect manager
type Config struct {
	MinBackoff time.Duration // Initial backoff (e.g. 1s)
	MaxBackoff time.Duration // Max backoff (e.g. 60s)
	Multiplier float64       // Growth factor per consecutive failure (e.g. 2.0)
}

// NewManager creates a reconnect manager with sensible defaults
func NewManager(config Config, log *logger.Logger) *Manager {
	if config.MinBackoff == 0 {
		config.MinBackoff = 1 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 60 * time.Second
	}
	if config.Multiplier == 0 {
		config.Multiplier = 2.0
	}

	return &Manager{
		minBackoff:     config.MinBackoff,
		maxBackoff:     config.MaxBackoff,
		multiplier:     config.Multiplier,
		currentBackoff: config.MinBackoff,
		log:            log,
	}
}

// NextDelay records a connection failure and returns the delay to wait before
// the next attempt. The Nth consecutive failure yields min(min*mult^(N-1), max).
func (m *Manager) NextDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++
	delay := m.currentBackoff

	next := time.Duration(float64(m.currentBackoff) * m.multiplier)
	if next > m.maxBackoff {
		next = m.maxBackoff
	}
	m.currentBackoff = next

	m.log.Warnw("Connection failed",
		"consecutive_failures", m.consecutiveFailures,
		"retry_in", delay,
	)
	return delay
}

// Wait records a failure and sleeps for the resulting backoff delay.
// Returns early with ctx.Err() when the context is cancelled.
func (m *Manager) Wait(ctx context.Context) error {
	delay := m.NextDelay()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset records a successful connection, resetting backoff to the minimum
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consecutiveFailures > 0 {
		m.log.Infow("Connection restored, resetting backoff",
			"previous_consecutive_failures", m.consecutiveFailures,
		)
		m.totalReconnects++
	}
	m.currentBackoff = m.minBackoff
	m.consecutiveFailures = 0
}

// ConsecutiveFailures returns the number of failures since the last success
func (m *Manager) ConsecutiveFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consecutiveFailures
}

// TotalReconnects returns how many times the connection was re-established
// after at least one failure
func (m *Manager) TotalReconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalReconnects
}
