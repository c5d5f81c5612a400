package broadcast

import (
	"context"
	"sync"
)

// Hub fans out "state changed" signals to everyone watching a quiz.
// Signals carry no payload; subscribers re-fetch the aggregate. Sends
// never block: a subscriber that already has a pending signal is left
// with that one pending signal, which coalesces bursts.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers a watcher for a quiz. The caller must invoke the
// returned cancel function to avoid leaks.
func (h *Hub) Subscribe(quizID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[quizID] == nil {
		h.subs[quizID] = make(map[chan struct{}]struct{})
	}
	h.subs[quizID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if watchers, ok := h.subs[quizID]; ok {
			if _, ok := watchers[ch]; ok {
				delete(watchers, ch)
				close(ch)
			}
			if len(watchers) == 0 {
				delete(h.subs, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify signals every subscriber of the quiz. It never fails and
// never blocks.
func (h *Hub) Notify(_ context.Context, quizID string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[quizID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}
