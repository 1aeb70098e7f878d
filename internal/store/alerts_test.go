package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain"
)

func testAlert(headline string) domain.Alert {
	return domain.Alert{
		ID:        headline,
		Source:    "test",
		Headline:  headline,
		Urgency:   domain.UrgencyHigh,
		Ticker:    domain.MacroTicker,
		Timestamp: time.Now().UTC(),
	}
}

func TestAlertQueueAppendAndLen(t *testing.T) {
	q := NewAlertQueue(filepath.Join(t.TempDir(), "pending.json"), 10)

	q.Append(testAlert("one"))
	q.Append(testAlert("two"))

	assert.Equal(t, 2, q.Len())
}

func TestAlertQueueCapacityEviction(t *testing.T) {
	q := NewAlertQueue(filepath.Join(t.TempDir(), "pending.json"), 100)

	for i := 1; i <= 101; i++ {
		q.Append(testAlert(fmt.Sprintf("alert-%d", i)))
	}

	require.Equal(t, 100, q.Len())
	pending := q.Snapshot()
	assert.Equal(t, "alert-2", pending[0].Headline, "oldest alert silently dropped")
	assert.Equal(t, "alert-101", pending[99].Headline)
}

func TestAlertQueuePopAll(t *testing.T) {
	q := NewAlertQueue(filepath.Join(t.TempDir(), "pending.json"), 10)

	q.Append(testAlert("one"))
	q.Append(testAlert("two"))

	popped := q.PopAll()
	require.Len(t, popped, 2)
	assert.Equal(t, "one", popped[0].Headline)
	assert.Equal(t, 0, q.Len())

	// A second pop with no intervening append returns nothing
	assert.Empty(t, q.PopAll())
}

func TestAlertQueueConcurrentAppendAndPopAll(t *testing.T) {
	q := NewAlertQueue(filepath.Join(t.TempDir(), "pending.json"), 1000)

	const total = 200
	var wg sync.WaitGroup

	collected := make(chan []domain.Alert, 64)

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q.Append(testAlert(fmt.Sprintf("alert-%d", n)))
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			collected <- q.PopAll()
		}
	}()

	wg.Wait()
	collected <- q.PopAll()
	close(collected)

	got := 0
	for batch := range collected {
		got += len(batch)
	}
	assert.Equal(t, total, got, "every appended alert observed exactly once")
	assert.Equal(t, 0, q.Len())
}

func TestAlertQueuePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")

	q := NewAlertQueue(path, 10)
	q.Append(testAlert("persisted"))

	restored := NewAlertQueue(path, 10)
	restored.Load()
	require.Equal(t, 1, restored.Len())
	assert.Equal(t, "persisted", restored.Snapshot()[0].Headline)

	// PopAll persists the empty state
	restored.PopAll()
	alerts, err := ReadAlertFile(path)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestReadAlertFileMissing(t *testing.T) {
	alerts, err := ReadAlertFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
