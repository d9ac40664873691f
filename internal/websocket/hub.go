package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrSubscriberClosed is returned by Send after Close
	ErrSubscriberClosed = errors.New("subscriber is closed")
	// ErrSubscriberBehind is returned by Send when the subscriber's queue is full
	ErrSubscriberBehind = errors.New("subscriber queue is full")
)

// Subscriber receives the encoded change events of a single ledger
type Subscriber interface {
	ID() string
	LedgerID() string
	Send(data []byte) error
	Close() error
}

// Hub fans ledger events out to that ledger's subscribers. A subscriber
// that cannot take an event is dropped and closed, so one slow reader
// never holds back the others.
type Hub struct {
	mu     sync.RWMutex
	ledger map[string]map[Subscriber]struct{}
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{ledger: make(map[string]map[Subscriber]struct{})}
}

// Subscribe adds sub to its ledger's audience
func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.ledger[sub.LedgerID()]
	if !ok {
		subs = make(map[Subscriber]struct{})
		h.ledger[sub.LedgerID()] = subs
	}
	subs[sub] = struct{}{}

	log.Debug().
		Str("ledger_id", sub.LedgerID()).
		Str("subscriber_id", sub.ID()).
		Int("subscribers", len(subs)).
		Msg("Ledger subscriber added")
}

// Unsubscribe removes sub; unknown subscribers are ignored
func (h *Hub) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// remove deletes sub and reports whether it was present. Callers hold mu.
func (h *Hub) remove(sub Subscriber) bool {
	subs, ok := h.ledger[sub.LedgerID()]
	if !ok {
		return false
	}
	if _, ok := subs[sub]; !ok {
		return false
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.ledger, sub.LedgerID())
	}
	return true
}

// Publish implements EventPublisher. Delivery is a non-blocking enqueue per
// subscriber; subscribers that refuse the event are dropped.
func (h *Hub) Publish(event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("ledger_id", event.LedgerID).
			Str("event_type", event.Type).
			Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.ledger[event.LedgerID]))
	for sub := range h.ledger[event.LedgerID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	var dropped []Subscriber
	for _, sub := range targets {
		if err := sub.Send(data); err != nil {
			dropped = append(dropped, sub)
		}
	}
	if len(dropped) > 0 {
		h.drop(dropped)
	}

	log.Debug().
		Str("ledger_id", event.LedgerID).
		Str("event_type", event.Type).
		Int("delivered", len(targets)-len(dropped)).
		Int("dropped", len(dropped)).
		Msg("Ledger event published")
}

func (h *Hub) drop(subs []Subscriber) {
	h.mu.Lock()
	removed := subs[:0]
	for _, sub := range subs {
		if h.remove(sub) {
			removed = append(removed, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range removed {
		log.Warn().
			Str("ledger_id", sub.LedgerID()).
			Str("subscriber_id", sub.ID()).
			Msg("Dropping ledger subscriber")
		sub.Close()
	}
}

// Subscribers returns how many subscribers ledgerID has
func (h *Hub) Subscribers(ledgerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ledger[ledgerID])
}

// TotalSubscribers returns the subscriber count across all ledgers
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.ledger {
		total += len(subs)
	}
	return total
}
