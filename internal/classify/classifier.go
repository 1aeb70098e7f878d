// Package classify turns raw news text into an urgency/relevance
// classification. Pure functions over static configuration: no I/O, no
// per-event state, deterministic output for identical input.
package classify

import (
	"strings"

	"sentinel/internal/domain"
)

// Keyword tiers, evaluated in fixed priority order. Substring match against
// the case-folded headline+summary, not tokenized. Some entries carry a
// trailing space to avoid matching inside longer words ("cpi " vs "cpio").
var (
	macroCritical = []string{
		"federal reserve", "fed rate", "rate hike", "rate cut", "fomc",
		"tariff", "trade war", "sanction", "war ", "invasion",
		"recession", "default", "debt ceiling", "government shutdown",
		"banking crisis", "bank failure", "emergency",
	}
	macroHigh = []string{
		"inflation", "cpi ", "ppi ", "jobs report", "nonfarm", "unemployment",
		"gdp ", "housing", "consumer confidence", "retail sales",
		"oil price", "crude oil", "opec", "china", "treasury yield",
	}
	tickerCritical = []string{
		"earnings", "guidance", "fda approv", "fda reject", "acquire",
		"merger", "bankrupt", "fraud", "sec investigat", "recall",
		"data breach", "ceo resign", "ceo fired",
	}
	tickerHigh = []string{
		"upgrade", "downgrade", "price target", "beat", "miss",
		"revenue", "profit", "contract", "partnership", "dividend",
		"buyback", "stock split", "offering", "dilut", "layoff",
	}
)

// companyAliases maps lowercase company names to tickers, in fixed scan order
// so matched tickers are appended deterministically.
var companyAliases = []struct {
	Name   string
	Ticker string
}{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"alphabet", "GOOGL"},
	{"amazon", "AMZN"},
	{"nvidia", "NVDA"},
	{"meta platforms", "META"},
	{"facebook", "META"},
	{"tesla", "TSLA"},
}

// Classifier resolves urgency tiers and ticker relevance against a fixed
// watchlist. Construct once and share; safe for concurrent use.
type Classifier struct {
	watchlist []string
	watchSet  map[string]struct{}
}

// New creates a classifier for the given watchlist. Symbols are
// upper-cased; order is preserved for deterministic ticker resolution.
func New(watchlist []string) *Classifier {
	c := &Classifier{
		watchSet: make(map[string]struct{}, len(watchlist)),
	}
	for _, s := range watchlist {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, ok := c.watchSet[sym]; ok {
			continue
		}
		c.watchlist = append(c.watchlist, sym)
		c.watchSet[sym] = struct{}{}
	}
	return c
}

// Watchlist returns the configured watchlist symbols.
func (c *Classifier) Watchlist() []string {
	return c.watchlist
}

// Classify evaluates a news item. Total: unmatched or empty input yields
// low urgency with empty tickers, never an error. Urgency only upgrades
// within one pass; a later lower-priority tier never demotes it.
func (c *Classifier) Classify(headline, summary string, symbols []string) domain.Classification {
	text := strings.ToLower(headline + " " + summary)

	result := domain.Classification{
		Urgency:        domain.UrgencyLow,
		MatchedTickers: []string{},
		KeywordsHit:    []string{},
	}

	for _, kw := range macroCritical {
		if strings.Contains(text, kw) {
			result.Urgency = domain.UrgencyCritical
			result.IsMacro = true
			result.KeywordsHit = append(result.KeywordsHit, kw)
		}
	}

	if result.Urgency != domain.UrgencyCritical {
		for _, kw := range macroHigh {
			if strings.Contains(text, kw) {
				result.Urgency = domain.UrgencyHigh
				result.IsMacro = true
				result.KeywordsHit = append(result.KeywordsHit, kw)
			}
		}
	}

	// Ticker-specific events are never demoted by a prior macro-high match
	for _, kw := range tickerCritical {
		if strings.Contains(text, kw) {
			result.Urgency = domain.UrgencyCritical
			result.KeywordsHit = append(result.KeywordsHit, kw)
		}
	}

	if result.Urgency != domain.UrgencyCritical {
		for _, kw := range tickerHigh {
			if strings.Contains(text, kw) {
				result.Urgency = domain.UrgencyHigh
				result.KeywordsHit = append(result.KeywordsHit, kw)
			}
		}
	}

	result.MatchedTickers = c.matchTickers(headline, text, symbols)
	return result
}

// matchTickers resolves relevant watchlist tickers in discovery order:
// provider symbols first, then whole-token headline mentions, then company
// name aliases in the folded text.
func (c *Classifier) matchTickers(headline, foldedText string, symbols []string) []string {
	matched := []string{}
	seen := make(map[string]struct{})

	add := func(ticker string) {
		if _, ok := seen[ticker]; ok {
			return
		}
		seen[ticker] = struct{}{}
		matched = append(matched, ticker)
	}

	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if _, ok := c.watchSet[sym]; ok {
			add(sym)
		}
	}

	tokens := headlineTokens(headline)
	for _, tk := range c.watchlist {
		if _, ok := tokens[tk]; ok {
			add(tk)
		}
	}

	for _, alias := range companyAliases {
		if strings.Contains(foldedText, alias.Name) {
			add(alias.Ticker)
		}
	}

	return matched
}

// headlineTokens splits a headline into upper-cased whole tokens so that
// "AAPL" matches but "AAPLX" does not.
func headlineTokens(headline string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToUpper(headline), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
