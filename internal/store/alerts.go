package store

import (
	"sync"

	"sentinel/internal/domain"
	"sentinel/pkg/logger"
)

// DefaultQueueCapacity bounds the pending alert queue. Alert loss past this
// many unread items is an accepted degradation, not an error.
const DefaultQueueCapacity = 100

// AlertQueue is a bounded FIFO queue of pending alerts, persisted after
// every mutation. Appends from concurrent adapters serialize through one
// mutex; readers never observe a partially written queue.
type AlertQueue struct {
	mu       sync.Mutex
	path     string
	capacity int
	alerts   []domain.Alert
	log      *logger.Logger
}

// NewAlertQueue creates an empty queue persisting to path.
func NewAlertQueue(path string, capacity int) *AlertQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &AlertQueue{
		path:     path,
		capacity: capacity,
		log:      logger.Get().With("component", "alert_queue"),
	}
}

// Load restores alerts left pending by a previous run. Best-effort.
func (q *AlertQueue) Load() {
	var alerts []domain.Alert
	ok, err := readJSON(q.path, &alerts)
	if err != nil {
		q.log.Warnf("Failed to load pending alerts, starting empty: %v", err)
		return
	}
	if !ok {
		return
	}

	if len(alerts) > q.capacity {
		alerts = alerts[len(alerts)-q.capacity:]
	}

	q.mu.Lock()
	q.alerts = alerts
	q.mu.Unlock()
	q.log.Infof("Loaded %d pending alerts", len(alerts))
}

// Append adds an alert, evicting the oldest entry past capacity, and
// persists the queue. Never returns an error: a disk-write failure is
// logged and the in-memory queue stays authoritative.
func (q *AlertQueue) Append(alert domain.Alert) {
	q.mu.Lock()
	q.alerts = append(q.alerts, alert)
	if len(q.alerts) > q.capacity {
		q.alerts = q.alerts[len(q.alerts)-q.capacity:]
	}
	q.persistLocked()
	q.mu.Unlock()

	q.log.Infow("🚨 Alert queued",
		"urgency", alert.Urgency,
		"ticker", alert.Ticker,
		"headline", truncate(alert.Headline, 80),
	)
}

// PopAll atomically returns all pending alerts and clears the queue,
// persisting the empty state before returning.
func (q *AlertQueue) PopAll() []domain.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.alerts
	q.alerts = nil
	q.persistLocked()
	return out
}

// Len returns the number of pending alerts.
func (q *AlertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.alerts)
}

// Snapshot returns a copy of the pending alerts without clearing them.
func (q *AlertQueue) Snapshot() []domain.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Alert, len(q.alerts))
	copy(out, q.alerts)
	return out
}

// Flush re-persists the current queue.
func (q *AlertQueue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.persistLocked()
}

func (q *AlertQueue) persistLocked() {
	snapshot := q.alerts
	if snapshot == nil {
		snapshot = []domain.Alert{}
	}
	if err := atomicWriteJSON(q.path, snapshot); err != nil {
		q.log.Warnf("Failed to persist pending alerts: %v", err)
	}
}

// ReadAlertFile reads a persisted pending queue without touching it. Used
// by the status and alerts control commands, which run outside the daemon
// process.
func ReadAlertFile(path string) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if _, err := readJSON(path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
