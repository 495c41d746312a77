// Package sink provides local projections of reconciliation events for
// side effects (terminal rendering, logs). Sinks are observers only; no
// domain logic lives here.
package sink

import (
	"context"
	"sync"

	"whisper-bridge/domain"
	"whisper-bridge/domain/event"
)

// Feed projects refreshed histories into a stream of not-yet-seen
// messages. Each full-replace refresh is deduplicated by message id, so a
// consumer draining the feed sees every message exactly once even though
// the synchronizer re-transfers the whole window each cycle.
type Feed struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	pending []domain.Message
	primed  bool
}

func NewFeed() *Feed {
	return &Feed{seen: map[string]struct{}{}}
}

func (f *Feed) Consume(_ context.Context, e event.DomainEvent) error {
	refreshed, ok := e.(event.MessagesRefreshed)
	if !ok {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// The first refresh is the backlog present before joining; mark it
	// seen without queueing so the consumer starts from "now".
	if !f.primed {
		for _, m := range refreshed.Messages {
			f.seen[m.ID] = struct{}{}
		}
		f.primed = true
		return nil
	}

	for _, m := range refreshed.Messages {
		if _, done := f.seen[m.ID]; done {
			continue
		}
		f.seen[m.ID] = struct{}{}
		f.pending = append(f.pending, m)
	}
	return nil
}

// Drain returns the messages that arrived since the previous call.
func (f *Feed) Drain() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}
