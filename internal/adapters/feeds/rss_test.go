package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/adapters/config"
	"sentinel/internal/classify"
	"sentinel/internal/pipeline"
	"sentinel/internal/store"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Fed signals rate hike amid inflation data</title>
      <description>Markets react to the announcement</description>
      <link>https://example.com/fed-rate-hike</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Local bakery wins award</title>
      <description>Croissants praised</description>
      <link>https://example.com/bakery</link>
    </item>
  </channel>
</rss>`

func newTestPipeline(t *testing.T) (*pipeline.Pipeline, *store.AlertQueue) {
	t.Helper()
	dir := t.TempDir()
	seen := store.NewSeenCache(filepath.Join(dir, "seen.json"), 100)
	queue := store.NewAlertQueue(filepath.Join(dir, "pending.json"), 100)
	return pipeline.New(seen, queue, classify.New([]string{"AAPL", "TSLA"})), queue
}

func rssConfig(feedURL string) config.RSSConfig {
	return config.RSSConfig{
		Interval:       time.Minute,
		Feeds:          []string{"Test=" + feedURL},
		MaxEntries:     15,
		FetchTimeout:   5 * time.Second,
		RequestsPerSec: 100,
	}
}

func TestRSSWorkerQueuesCriticalHeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	pipe, queue := newTestPipeline(t)
	worker := NewRSSWorker(rssConfig(srv.URL), pipe)

	require.NoError(t, worker.Run(context.Background()))

	require.Equal(t, 1, queue.Len(), "only the critical headline becomes an alert")
	a := queue.Snapshot()[0]
	assert.Equal(t, "rss:Test", a.Source)
	assert.Equal(t, "Fed signals rate hike amid inflation data", a.Headline)
	assert.True(t, a.IsMacro)
	assert.Empty(t, a.Symbols, "RSS items carry no structured symbols")
	assert.Equal(t, "https://example.com/fed-rate-hike", a.URL)
}

func TestRSSWorkerDeduplicatesAcrossTicks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	pipe, queue := newTestPipeline(t)
	worker := NewRSSWorker(rssConfig(srv.URL), pipe)

	require.NoError(t, worker.Run(context.Background()))
	require.NoError(t, worker.Run(context.Background()))

	assert.Equal(t, 1, queue.Len(), "second tick sees only duplicates")
}

func TestRSSWorkerContinuesPastBadFeed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	pipe, queue := newTestPipeline(t)
	cfg := rssConfig(good.URL)
	cfg.Feeds = []string{"Bad=" + bad.URL, "Good=" + good.URL}
	worker := NewRSSWorker(cfg, pipe)

	require.NoError(t, worker.Run(context.Background()), "a failing feed never aborts the pass")
	assert.Equal(t, 1, queue.Len(), "the healthy feed is still polled")
}

func TestRSSWorkerRespectsMaxEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	pipe, queue := newTestPipeline(t)
	cfg := rssConfig(srv.URL)
	cfg.MaxEntries = 1
	worker := NewRSSWorker(cfg, pipe)

	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, 1, queue.Len())
}

func TestRSSWorkerQuietOnShutdown(t *testing.T) {
	pipe, queue := newTestPipeline(t)
	worker := NewRSSWorker(rssConfig("http://127.0.0.1:1"), pipe)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, worker.Run(ctx), "an interrupted pass is not a failure")
	assert.Equal(t, 0, queue.Len())
	assert.Equal(t, int64(0), worker.Health().RunCount, "an interrupted pass is not recorded")
}

func TestRSSWorkerDefaultFeeds(t *testing.T) {
	pipe, _ := newTestPipeline(t)
	worker := NewRSSWorker(config.RSSConfig{Interval: time.Minute, MaxEntries: 15, FetchTimeout: time.Second, RequestsPerSec: 1}, pipe)

	require.Len(t, worker.Feeds(), 5)
	assert.Equal(t, "CNBC_Top", worker.Feeds()[0].Name)
}

func TestParseFeedSpecs(t *testing.T) {
	tests := []struct {
		name     string
		specs    []string
		expected []Feed
	}{
		{
			name:     "valid pairs",
			specs:    []string{"A=http://a", "B=http://b?x=1"},
			expected: []Feed{{"A", "http://a"}, {"B", "http://b?x=1"}},
		},
		{
			name:     "malformed entries skipped",
			specs:    []string{"noequals", "=nourl", "name="},
			expected: []Feed{},
		},
		{
			name:     "empty input",
			expected: []Feed{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFeedSpecs(tt.specs))
		})
	}
}
