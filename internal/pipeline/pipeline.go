// Package pipeline runs every ingested event through the shared
// dedup → classify → enqueue path. It is the single point where adapters
// touch the two shared stores; network I/O never happens under its locks.
package pipeline

import (
	"sentinel/internal/classify"
	"sentinel/internal/domain"
	"sentinel/internal/store"
	"sentinel/pkg/logger"
)

// Pipeline processes raw events from all source adapters.
type Pipeline struct {
	seen       *store.SeenCache
	queue      *store.AlertQueue
	classifier *classify.Classifier
	log        *logger.Logger
}

// New wires the pipeline to its stores and classifier.
func New(seen *store.SeenCache, queue *store.AlertQueue, classifier *classify.Classifier) *Pipeline {
	return &Pipeline{
		seen:       seen,
		queue:      queue,
		classifier: classifier,
		log:        logger.Get().With("component", "pipeline"),
	}
}

// Process deduplicates and classifies one event, queueing an alert when the
// urgency warrants it. Returns true when an alert was queued.
func (p *Pipeline) Process(ev domain.RawEvent) bool {
	fp := ev.Fingerprint()
	if p.seen.Seen(fp) {
		return false
	}
	p.seen.Record(fp)

	c := p.classifier.Classify(ev.Headline, ev.Summary, ev.Symbols)

	p.log.Debugw("Event classified",
		"urgency", c.Urgency,
		"source", ev.Source,
		"headline", ev.Headline,
		"symbols", ev.Symbols,
	)

	if !c.Urgency.Alertable() {
		return false
	}

	p.queue.Append(domain.NewAlert(ev, c))
	return true
}

// FlushStores persists both stores. Adapters call this at the end of each
// processing pass; a crash between passes may replay a few already-alerted
// items once, which is the accepted best-effort guarantee.
func (p *Pipeline) FlushStores() {
	p.seen.Flush()
	p.queue.Flush()
}

// PendingAlerts returns the current pending-queue depth.
func (p *Pipeline) PendingAlerts() int {
	return p.queue.Len()
}
