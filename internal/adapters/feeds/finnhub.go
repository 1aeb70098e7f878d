package feeds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentinel/internal/adapters/config"
	"sentinel/internal/domain"
	"sentinel/internal/pipeline"
	"sentinel/internal/workers"
	"sentinel/pkg/errors"
)

// FinnhubWorker polls the Finnhub general-news endpoint. Optional: when no
// API key is configured the worker reports itself disabled and the
// scheduler never starts it.
type FinnhubWorker struct {
	*workers.BaseWorker
	apiKey   string
	baseURL  string
	client   *http.Client
	pipe     *pipeline.Pipeline
	maxItems int
}

type finnhubItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// NewFinnhubWorker creates the Finnhub polling worker.
func NewFinnhubWorker(cfg config.FinnhubConfig, pipe *pipeline.Pipeline) *FinnhubWorker {
	return &FinnhubWorker{
		BaseWorker: workers.NewBaseWorker("finnhub_poller", cfg.Interval, cfg.Enabled()),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: 15 * time.Second},
		pipe:       pipe,
		maxItems:   cfg.MaxItems,
	}
}

// Run fetches one page of general market news and feeds it through the
// pipeline.
func (w *FinnhubWorker) Run(ctx context.Context) error {
	items, err := w.fetch(ctx)
	if err != nil {
		// Shutdown mid-fetch is not a failed pass
		if ctx.Err() != nil {
			return nil
		}
		w.RecordError(err)
		return err
	}

	if len(items) > w.maxItems {
		items = items[:w.maxItems]
	}

	for _, item := range items {
		providerID := ""
		if item.ID != 0 {
			providerID = strconv.FormatInt(item.ID, 10)
		}

		observed := time.Now().UTC()
		if item.Datetime > 0 {
			observed = time.Unix(item.Datetime, 0).UTC()
		}

		w.pipe.Process(domain.RawEvent{
			Headline:   item.Headline,
			Summary:    item.Summary,
			Symbols:    splitRelated(item.Related),
			Source:     "finnhub",
			ProviderID: providerID,
			ObservedAt: observed,
			URL:        item.URL,
		})
	}

	w.pipe.FlushStores()
	w.RecordRun()
	return nil
}

func (w *FinnhubWorker) fetch(ctx context.Context) ([]finnhubItem, error) {
	endpoint := w.baseURL + "/news?category=general&token=" + url.QueryEscape(w.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFeedUnavailable, "finnhub: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrFeedUnavailable, "finnhub: status %d", resp.StatusCode)
	}

	var items []finnhubItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedPayload, "finnhub: %v", err)
	}
	return items, nil
}

// splitRelated turns Finnhub's comma-separated related-symbol string into a
// symbol slice, dropping empty entries.
func splitRelated(related string) []string {
	if related == "" {
		return []string{}
	}
	parts := strings.Split(related, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
