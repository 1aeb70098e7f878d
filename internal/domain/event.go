// Package domain defines the core data model for the news ingestion daemon.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Urgency classifies how quickly a news item needs attention.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Alertable reports whether an item of this urgency becomes a pending alert.
func (u Urgency) Alertable() bool {
	return u == UrgencyCritical || u == UrgencyHigh
}

// MacroTicker is the sentinel ticker for market-wide events with no
// specific matched symbol.
const MacroTicker = "MACRO"

// RawEvent is a provider-agnostic news item, created the moment an adapter
// parses a provider payload. Never mutated and never persisted on its own.
type RawEvent struct {
	Headline   string
	Summary    string
	Symbols    []string
	Source     string
	ProviderID string
	ObservedAt time.Time
	URL        string
}

// Fingerprint identifies the event for deduplication: two events with the
// same fingerprint are the same news item regardless of arrival adapter.
// The provider-assigned ID is preferred; headline is the fallback basis.
func (e RawEvent) Fingerprint() string {
	basis := e.ProviderID
	if basis == "" {
		basis = e.Headline
	}
	sum := sha256.Sum256([]byte(e.Source + ":" + basis))
	return hex.EncodeToString(sum[:])[:16]
}

// Classification is the pure result of urgency/relevance analysis of a
// single event. Recomputing for identical input yields identical output.
type Classification struct {
	Urgency        Urgency
	IsMacro        bool
	MatchedTickers []string
	KeywordsHit    []string
}

// Alert is a classified, deduplicated event queued for external consumption.
// Immutable once created. Field names are the wire contract read by the
// trading-logic consumer.
type Alert struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Headline       string    `json:"headline"`
	Summary        string    `json:"summary"`
	Symbols        []string  `json:"symbols"`
	Urgency        Urgency   `json:"urgency"`
	IsMacro        bool      `json:"is_macro"`
	Ticker         string    `json:"ticker"`
	MatchedTickers []string  `json:"matched_tickers"`
	Keywords       []string  `json:"keywords"`
	Timestamp      time.Time `json:"timestamp"`
	URL            string    `json:"url"`
}

const maxAlertSummary = 300

// NewAlert builds an Alert from an event and its classification.
// Ticker is the first matched ticker, or MACRO when none matched.
func NewAlert(ev RawEvent, c Classification) Alert {
	ticker := MacroTicker
	if len(c.MatchedTickers) > 0 {
		ticker = c.MatchedTickers[0]
	}

	summary := ev.Summary
	if len(summary) > maxAlertSummary {
		summary = summary[:maxAlertSummary]
	}

	ts := ev.ObservedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return Alert{
		ID:             uuid.NewString(),
		Source:         ev.Source,
		Headline:       ev.Headline,
		Summary:        summary,
		Symbols:        ev.Symbols,
		Urgency:        c.Urgency,
		IsMacro:        c.IsMacro,
		Ticker:         ticker,
		MatchedTickers: c.MatchedTickers,
		Keywords:       c.KeywordsHit,
		Timestamp:      ts,
		URL:            ev.URL,
	}
}
