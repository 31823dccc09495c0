// Package storage provides shared types for the durable event log.
//
// The concrete implementation lives in the sqlite sub-package. This package
// holds the interface and sentinel errors referenced by both the sqlite
// implementation and its consumers (session, syncer, service).
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/quiltdb/quilt/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrMalformedBatch is returned when an import batch contains events whose
// origin-local sequence numbers are non-monotonic, or events that fail
// structural validation. The entire batch is rejected; nothing is persisted.
var ErrMalformedBatch = errors.New("malformed batch")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is the durable, append-only event log plus its sync and key-state
// bookkeeping. Implementations must make AppendLocal and ImportBatch atomic:
// either the write is fully durable on return or not observable at all.
type Store interface {
	Close() error

	// Origin returns the store's own replica identifier, assigned at
	// creation and stable for the life of the store.
	Origin(ctx context.Context) (string, error)

	// AppendLocal durably appends one locally-originated event, assigning
	// the next gapless local sequence number. The returned event carries
	// the assigned origin and sequence.
	AppendLocal(ctx context.Context, ev types.Event) (types.Event, error)

	// ListEvents returns the full log in (origin, seq) storage order.
	ListEvents(ctx context.Context) ([]types.Event, error)

	// ListLocalEventsSince returns locally-originated events with sequence
	// strictly greater than since, in ascending sequence order. A since
	// beyond the current maximum yields an empty slice.
	ListLocalEventsSince(ctx context.Context, since int64) ([]types.Event, error)

	// ImportBatch persists remote events transactionally: duplicates by
	// (origin, seq) are skipped, gaps are tolerated, per-origin cursor rows
	// are advanced in the same transaction. Events authored by the local
	// origin are ignored and never touch the local sequence counter.
	// Returns the number of newly persisted events.
	ImportBatch(ctx context.Context, events []types.Event) (int, error)

	// SyncState returns the local counter, export watermark, and the map of
	// remote origins to their highest imported sequence.
	SyncState(ctx context.Context) (types.SyncState, error)

	// SetLastExported persists the export watermark. Watermark rows are
	// only ever advanced, never rewound.
	SetLastExported(ctx context.Context, seq int64) error

	// KeyState returns the persisted key metadata; Initialized() is false
	// on a store whose keys were never set up.
	KeyState(ctx context.Context) (types.KeyState, error)

	// SaveKeyState persists key metadata. It fails if key state already
	// exists: key rotation is not supported.
	SaveKeyState(ctx context.Context, ks types.KeyState) error
}

// ValidateBatch checks the structural invariants of an import batch: known
// event types, non-empty origins, positive sequence numbers, and strictly
// increasing sequences per origin in batch order. Violations are reported
// as ErrMalformedBatch; the caller must reject the whole batch.
func ValidateBatch(events []types.Event) error {
	lastSeq := make(map[string]int64, 4)
	for i, ev := range events {
		if ev.Origin == "" {
			return batchError(i, "missing origin")
		}
		if ev.Seq <= 0 {
			return batchError(i, "non-positive seq")
		}
		if err := ev.Type.Validate(); err != nil {
			return batchError(i, err.Error())
		}
		if ev.TS.IsZero() {
			return batchError(i, "missing timestamp")
		}
		if len(ev.Payload) == 0 {
			return batchError(i, "empty payload")
		}
		if prev, ok := lastSeq[ev.Origin]; ok && ev.Seq <= prev {
			return batchError(i, "non-monotonic seq for origin")
		}
		lastSeq[ev.Origin] = ev.Seq
	}
	return nil
}

func batchError(index int, msg string) error {
	return &BatchError{Index: index, Msg: msg}
}

// BatchError describes why an import batch was rejected. It unwraps to
// ErrMalformedBatch so callers can classify it with errors.Is.
type BatchError struct {
	Index int
	Msg   string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("malformed batch: event %d: %s", e.Index, e.Msg)
}

func (e *BatchError) Unwrap() error { return ErrMalformedBatch }
