package types

import (
	"fmt"
	"time"
)

// EventType is the logical kind of a log entry.
type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventDeleted       EventType = "deleted"
	EventReordered     EventType = "reordered"
	EventDueDateSet    EventType = "due_date_set"
	EventCompletionSet EventType = "completion_set"
)

// Validate checks that the event type is known.
func (e EventType) Validate() error {
	switch e {
	case EventCreated, EventUpdated, EventDeleted,
		EventReordered, EventDueDateSet, EventCompletionSet:
		return nil
	}
	return fmt.Errorf("invalid event type: %s", string(e))
}

// Event is one entry in the append-only log. Payload is the AEAD-sealed
// JSON encoding of a Change; it is only ever decrypted while the key
// manager is unlocked. Identity for dedupe is (Origin, Seq).
type Event struct {
	Origin  string    `json:"origin"`
	Seq     int64     `json:"seq"`
	TS      time.Time `json:"ts"`
	Type    EventType `json:"type"`
	Payload []byte    `json:"payload"`
}

// Change is the decrypted payload of an event: the fields the event
// touches, never a whole task snapshot. Nil pointer fields are untouched.
// DueDate and CompletedAt use *string so that "clear" (empty string) is
// distinguishable from "untouched" (nil).
type Change struct {
	TaskID      string    `json:"task_id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Order       *int64    `json:"order,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"` // RFC3339Nano, "" = clear
	Archived    *bool     `json:"archived,omitempty"`
}

// OrderKey is the deterministic total order used to fold the log:
// (timestamp, origin, seq). It is replica-independent; any two stores
// holding the same event set fold in the same order.
func (e *Event) OrderKey() OrderKey {
	return OrderKey{TS: e.TS.UTC(), Origin: e.Origin, Seq: e.Seq}
}

// OrderKey is a comparable fold-order key.
type OrderKey struct {
	TS     time.Time
	Origin string
	Seq    int64
}

// Less reports whether k sorts strictly before other in the fold order.
func (k OrderKey) Less(other OrderKey) bool {
	if !k.TS.Equal(other.TS) {
		return k.TS.Before(other.TS)
	}
	if k.Origin != other.Origin {
		return k.Origin < other.Origin
	}
	return k.Seq < other.Seq
}
