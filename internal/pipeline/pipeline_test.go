package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/classify"
	"sentinel/internal/domain"
	"sentinel/internal/store"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.AlertQueue) {
	t.Helper()
	dir := t.TempDir()
	seen := store.NewSeenCache(filepath.Join(dir, "seen.json"), 100)
	queue := store.NewAlertQueue(filepath.Join(dir, "pending.json"), 100)
	c := classify.New([]string{"AAPL", "MSFT", "NVDA", "TSLA"})
	return New(seen, queue, c), queue
}

func event(headline string, symbols ...string) domain.RawEvent {
	return domain.RawEvent{
		Headline:   headline,
		Symbols:    symbols,
		Source:     "test",
		ObservedAt: time.Now().UTC(),
	}
}

func TestProcessQueuesAlertableEvents(t *testing.T) {
	tests := []struct {
		name        string
		headline    string
		symbols     []string
		expectAlert bool
	}{
		{
			name:        "critical ticker event",
			headline:    "Apple beats earnings estimates",
			symbols:     []string{"AAPL"},
			expectAlert: true,
		},
		{
			name:        "macro critical event",
			headline:    "Fed signals rate hike amid inflation data",
			expectAlert: true,
		},
		{
			name:        "low urgency skipped",
			headline:    "Company opens new office",
			expectAlert: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, q := newTestPipeline(t)

			alerted := p.Process(event(tt.headline, tt.symbols...))

			assert.Equal(t, tt.expectAlert, alerted)
			if tt.expectAlert {
				require.Equal(t, 1, q.Len())
				a := q.Snapshot()[0]
				assert.Equal(t, tt.headline, a.Headline)
				assert.NotEmpty(t, a.ID)
			} else {
				assert.Equal(t, 0, q.Len())
			}
		})
	}
}

func TestProcessDeduplicates(t *testing.T) {
	p, q := newTestPipeline(t)

	ev := event("Apple beats earnings estimates", "AAPL")
	assert.True(t, p.Process(ev))
	assert.False(t, p.Process(ev), "second occurrence is dropped")
	assert.Equal(t, 1, q.Len())
}

func TestProcessDedupAcrossSources(t *testing.T) {
	p, q := newTestPipeline(t)

	first := domain.RawEvent{Headline: "Tesla announces merger", Source: "rss:CNBC_Top"}
	other := domain.RawEvent{Headline: "Tesla announces merger", Source: "finnhub"}

	assert.True(t, p.Process(first))
	// Different source means a different fingerprint: both pass
	assert.True(t, p.Process(other))
	assert.Equal(t, 2, q.Len())
}

func TestProcessAlertFields(t *testing.T) {
	p, q := newTestPipeline(t)

	p.Process(event("NVDA guidance cut shocks investors", "NVDA"))

	require.Equal(t, 1, q.Len())
	a := q.Snapshot()[0]
	assert.Equal(t, domain.UrgencyCritical, a.Urgency)
	assert.Equal(t, "NVDA", a.Ticker)
	assert.Contains(t, a.Keywords, "guidance")
	assert.False(t, a.IsMacro)
}

func TestProcessMacroAlertUsesSentinelTicker(t *testing.T) {
	p, q := newTestPipeline(t)

	p.Process(event("Government shutdown looms over markets"))

	require.Equal(t, 1, q.Len())
	a := q.Snapshot()[0]
	assert.True(t, a.IsMacro)
	assert.Equal(t, domain.MacroTicker, a.Ticker)
}
