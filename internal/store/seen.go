package store

import (
	"sync"

	"sentinel/pkg/logger"
)

// DefaultSeenCapacity bounds the sliding window of remembered fingerprints.
const DefaultSeenCapacity = 5000

// SeenCache is a bounded FIFO window of event fingerprints used for
// deduplication. Oldest-inserted is evicted first regardless of
// re-occurrence: a sliding window, not an LRU. Safe for concurrent use.
type SeenCache struct {
	mu       sync.Mutex
	path     string
	capacity int
	order    []string // oldest first
	present  map[string]struct{}
	log      *logger.Logger
}

// NewSeenCache creates an empty cache persisting to path.
func NewSeenCache(path string, capacity int) *SeenCache {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	return &SeenCache{
		path:     path,
		capacity: capacity,
		present:  make(map[string]struct{}, capacity),
		log:      logger.Get().With("component", "seen_cache"),
	}
}

// Load restores previously persisted fingerprints, oldest first, truncated
// to capacity. Best-effort: a missing or unreadable file starts empty.
func (c *SeenCache) Load() {
	var ids []string
	ok, err := readJSON(c.path, &ids)
	if err != nil {
		c.log.Warnf("Failed to load seen cache, starting empty: %v", err)
		return
	}
	if !ok {
		return
	}

	if len(ids) > c.capacity {
		ids = ids[len(ids)-c.capacity:]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.present = make(map[string]struct{}, c.capacity)
	for _, id := range ids {
		if _, dup := c.present[id]; dup {
			continue
		}
		c.order = append(c.order, id)
		c.present[id] = struct{}{}
	}
	c.log.Infof("Loaded %d seen fingerprints", len(c.order))
}

// Seen reports whether the fingerprint is in the window.
func (c *SeenCache) Seen(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.present[fingerprint]
	return ok
}

// Record adds a fingerprint, evicting the oldest entry at capacity.
// Idempotent: re-recording a present fingerprint is a no-op and does not
// change eviction order.
func (c *SeenCache) Record(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.present[fingerprint]; ok {
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.present, oldest)
	}

	c.order = append(c.order, fingerprint)
	c.present[fingerprint] = struct{}{}
}

// Len returns the current window size.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Flush persists the full window, oldest first, replacing the previous
// file atomically. Failures are logged; the in-memory window stays
// authoritative.
func (c *SeenCache) Flush() {
	c.mu.Lock()
	snapshot := make([]string, len(c.order))
	copy(snapshot, c.order)
	c.mu.Unlock()

	if err := atomicWriteJSON(c.path, snapshot); err != nil {
		c.log.Warnf("Failed to persist seen cache: %v", err)
	}
}
