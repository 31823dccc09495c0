// Package syncer implements the export/import data plane between replicas.
//
// It adds no transformation beyond bookkeeping: events travel encrypted and
// unmodified, and the watermark/cursor updates are persisted with (or
// after) the events they describe so a crash in between can only produce
// duplicates, which import dedupes.
package syncer

import (
	"context"

	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/projector"
	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/types"
)

// Engine coordinates export/import against one store and keeps the
// session's projection in step with imported events.
type Engine struct {
	store storage.Store
}

// New returns an engine over the given store.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// Export returns locally-originated events with sequence strictly greater
// than since, ascending, and advances the export watermark to the highest
// sequence returned. A since beyond the end of the log yields an empty
// slice, not an error.
func (e *Engine) Export(ctx context.Context, since int64) ([]types.Event, error) {
	events, err := e.store.ListLocalEventsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		high := events[len(events)-1].Seq
		if err := e.store.SetLastExported(ctx, high); err != nil {
			return nil, err
		}
		debug.Logf("syncer: exported %d events, watermark=%d\n", len(events), high)
	}
	return events, nil
}

// Import validates and persists a remote batch, then refreshes the view
// from the newly accepted events. The whole batch lands or none of it
// does; replays and out-of-order batches are accepted as no-ops or gap
// fills, and a per-origin non-monotonic batch fails with
// storage.ErrMalformedBatch.
func (e *Engine) Import(ctx context.Context, events []types.Event, dec projector.Decryptor, view *projector.View) (int, error) {
	accepted, err := e.store.ImportBatch(ctx, events)
	if err != nil {
		return 0, err
	}
	if accepted > 0 {
		// Refold from storage rather than from the batch: storage already
		// dropped duplicates and local-origin echoes.
		all, err := e.store.ListEvents(ctx)
		if err != nil {
			return accepted, err
		}
		if err := view.Rebuild(dec, all); err != nil {
			return accepted, err
		}
		debug.Logf("syncer: imported %d events, projection now %d tasks\n",
			accepted, view.Projection().Len())
	}
	return accepted, nil
}

// State returns the sync bookkeeping callers use to decide what to export
// or request next.
func (e *Engine) State(ctx context.Context) (types.SyncState, error) {
	return e.store.SyncState(ctx)
}
