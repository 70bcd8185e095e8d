package store

import (
	"sync"

	"codegraph/internal/graph"
)

// eventHub fans change notifications out to subscribers. Delivery is
// best-effort: a subscriber that stops draining loses events instead of
// blocking the indexer.
type eventHub struct {
	mu     sync.Mutex
	closed bool
	subs   []chan graph.ChangeEvent
}

func newEventHub() *eventHub {
	return &eventHub{}
}

// Subscribe returns a channel receiving change events until the store closes.
func (s *Store) Subscribe() <-chan graph.ChangeEvent {
	s.events.mu.Lock()
	defer s.events.mu.Unlock()
	ch := make(chan graph.ChangeEvent, 64)
	if s.events.closed {
		close(ch)
		return ch
	}
	s.events.subs = append(s.events.subs, ch)
	return ch
}

// Publish notifies subscribers that a file's slice of the graph changed.
// Called after the enclosing transaction commits, never inside it.
func (s *Store) Publish(ev graph.ChangeEvent) {
	s.events.mu.Lock()
	defer s.events.mu.Unlock()
	if s.events.closed {
		return
	}
	for _, ch := range s.events.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
