package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the sync queue.
const (
	KindSync   = "sync"
	KindDelete = "delete"
)

// TransactionEvent is a lightweight notification that a transaction changed.
// It carries only the ID and kind; the worker fetches the full row from the
// database, so a stale event after a crash is harmless.
type TransactionEvent struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncEvent creates an event announcing a created or updated transaction
func NewSyncEvent(id int64) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Kind:      KindSync,
		Timestamp: time.Now(),
	}
}

// NewDeleteEvent creates an event announcing a deleted transaction
func NewDeleteEvent(id int64) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Kind:      KindDelete,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON parses an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
