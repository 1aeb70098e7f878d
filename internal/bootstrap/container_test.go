package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/adapters/config"
	"sentinel/internal/domain"
	"sentinel/internal/store"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "sentinel", Env: "test", LogLevel: "debug"},
		Data: config.DataConfig{Dir: dir},
		RSS: config.RSSConfig{
			Interval:       time.Minute,
			MaxEntries:     15,
			FetchTimeout:   5 * time.Second,
			RequestsPerSec: 2,
		},
		Finnhub:  config.FinnhubConfig{Interval: 2 * time.Minute, MaxItems: 20},
		Classify: config.ClassifyConfig{Watchlist: []string{"AAPL", "TSLA"}},
	}
}

func TestContainerWiresComponents(t *testing.T) {
	c, err := New(testConfig(t.TempDir()))
	require.NoError(t, err)

	assert.NotNil(t, c.Pipeline)
	assert.NotNil(t, c.Seen)
	assert.NotNil(t, c.Queue)
	assert.NotNil(t, c.Tracker)
	require.Len(t, c.Scheduler.Workers(), 2)
	assert.Nil(t, c.Stream, "no stream without credentials")
}

func TestContainerWithStreamCredentials(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Alpaca = config.AlpacaConfig{
		APIKey:    "key",
		SecretKey: "secret",
		StreamURL: "wss://example.com/news",
		ReadLimit: 30 * time.Second,
	}

	c, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Stream)
}

func TestContainerRestoresPersistedState(t *testing.T) {
	cfg := testConfig(t.TempDir())

	previous := store.NewAlertQueue(cfg.Data.PendingPath(), store.DefaultQueueCapacity)
	previous.Append(domain.Alert{ID: "left-over", Headline: "Apple halted", Urgency: domain.UrgencyCritical})

	seen := store.NewSeenCache(cfg.Data.SeenPath(), store.DefaultSeenCapacity)
	seen.Record("fp-1")
	seen.Flush()

	c, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Queue.Len())
	assert.True(t, c.Seen.Seen("fp-1"))
}
