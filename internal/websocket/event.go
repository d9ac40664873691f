package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeReset    EventType = "reset"
	EventTypeSnapshot EventType = "snapshot"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeExpense EntityType = "expense"
	EntityTypeBudget  EntityType = "budget"
	EntityTypeLedger  EntityType = "ledger"
)

// Event represents a change notification sent to ledger subscribers.
// Receivers re-read the ledger; the payload is informational only.
// Format: { type, entity, ledgerId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`     // Combined type e.g. "expense.created"
	Entity    EntityType  `json:"entity"`   // Entity type e.g. "expense"
	LedgerID  string      `json:"ledgerId"` // Ledger the change belongs to
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, ledgerID string, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		LedgerID:  ledgerID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseCreated creates an expense.created event
func ExpenseCreated(ledgerID string, payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, ledgerID, payload)
}

// BudgetUpdated creates a budget.updated event
func BudgetUpdated(ledgerID string, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBudget, ledgerID, payload)
}

// LedgerReset creates a ledger.reset event
func LedgerReset(ledgerID string) Event {
	return NewEvent(EventTypeReset, EntityTypeLedger, ledgerID, nil)
}

// LedgerSnapshot creates the ledger.snapshot event a subscriber receives
// first, carrying the balance at the time it subscribed
func LedgerSnapshot(ledgerID string, balance interface{}) Event {
	return NewEvent(EventTypeSnapshot, EntityTypeLedger, ledgerID, balance)
}
