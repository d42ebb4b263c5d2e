package grpc

import (
	"context"
	"sync"

	"github.com/gabenodland/trace-sub002/internal/logging"
	"github.com/gabenodland/trace-sub002/internal/server/models"
)

// subscriberBuffer is how many undelivered events a watcher may lag
// behind before events are dropped for it.
const subscriberBuffer = 16

// Hub fans committed entry changes out to watching devices. Subscribers
// are grouped per user; a slow subscriber loses events rather than
// blocking writers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan *models.Entry]struct{}
	log  logging.Logger
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{subs: make(map[string]map[chan *models.Entry]struct{}), log: log}
}

// Subscribe registers a watcher for the user's changes. The returned
// cancel func must be called when the stream ends; it closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan *models.Entry, func()) {
	ch := make(chan *models.Entry, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan *models.Entry]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers e to every subscriber of userID without blocking.
func (h *Hub) Publish(userID string, e *models.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- e:
		default:
			if h.log != nil {
				h.log.Warn(context.Background(), "watch subscriber lagging, event dropped", "user_id", userID, "entry_id", e.ID)
			}
		}
	}
}
