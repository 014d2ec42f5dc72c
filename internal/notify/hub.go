// Package notify fans admin events out to subscribers. Write outcomes
// (saves, deletes, partial agent-save failures) are published here and
// streamed to dashboard clients over SSE.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Severity mirrors the toast levels shown by dashboard clients.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one admin notification.
type Event struct {
	Type      string         `json:"type"`   // e.g. "tenant.created", "neurocore.agents_partial"
	Entity    string         `json:"entity"` // entity kind
	EntityID  string         `json:"entity_id,omitempty"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(eventType, entity, entityID string, sev Severity, message string) Event {
	return Event{
		Type:      eventType,
		Entity:    entity,
		EntityID:  entityID,
		Severity:  sev,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Hub broadcasts events to subscribers. Delivery is best-effort: a
// subscriber that cannot keep up drops events rather than blocking writers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 32)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Int("subscriber", id).Str("type", ev.Type).Msg("Subscriber lagging, event dropped")
		}
	}
}

// Subscribers returns the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
