// Package events carries verification stage events from the engine to
// live subscribers (the websocket feed). Delivery is best-effort: a
// slow subscriber drops events instead of blocking a submission.
package events

import (
	"sync"
	"time"
)

// Type identifies a verification stage
type Type string

const (
	TypeReceived    Type = "received"
	TypeClassifying Type = "classifying"
	TypeScored      Type = "scored"
	TypeDecided     Type = "decided"
	TypeApplied     Type = "applied"
	TypeAchievement Type = "achievement"
)

// Event is one stage notification for a user's submission
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id"`
	QuestID    string    `json:"quest_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Time       time.Time `json:"time"`
}

// Hub fans events out to subscribers
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub creates an event hub
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber channel. The returned cancel
// function must be called to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers without blocking
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			// subscriber is not keeping up, drop
		}
	}
}

// Subscribers returns the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
