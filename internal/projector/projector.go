// Package projector folds the decrypted event log into the current task
// set. The fold is pure and deterministic: any two replicas holding the
// same event set produce identical task state regardless of arrival order.
package projector

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/quiltdb/quilt/internal/types"
)

// Decryptor opens event payloads. Satisfied by *crypto.Manager.
type Decryptor interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Entry is one decrypted log entry, ready to fold.
type Entry struct {
	Origin string
	Seq    int64
	TS     time.Time
	Type   types.EventType
	Change types.Change
}

// key returns the deterministic fold-order key (ts, origin, seq).
func (e Entry) key() types.OrderKey {
	return types.OrderKey{TS: e.TS.UTC(), Origin: e.Origin, Seq: e.Seq}
}

// Decode decrypts and parses one stored event into a fold entry.
func Decode(dec Decryptor, ev types.Event) (Entry, error) {
	plaintext, err := dec.Decrypt(ev.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("decrypt event %s/%d: %w", ev.Origin, ev.Seq, err)
	}
	var change types.Change
	if err := json.Unmarshal(plaintext, &change); err != nil {
		return Entry{}, fmt.Errorf("decode event %s/%d: %w", ev.Origin, ev.Seq, err)
	}
	if change.TaskID == "" {
		return Entry{}, fmt.Errorf("event %s/%d: missing task id", ev.Origin, ev.Seq)
	}
	return Entry{
		Origin: ev.Origin,
		Seq:    ev.Seq,
		TS:     ev.TS,
		Type:   ev.Type,
		Change: change,
	}, nil
}

// Sort orders entries by the deterministic total order. Keys are unique
// because (origin, seq) is unique, so the result does not depend on the
// input permutation.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key().Less(entries[j].key())
	})
}

// Projection is the materialized task set. It is a derived, replaceable
// cache of the log, never the source of truth.
type Projection struct {
	tasks      map[string]*types.Task
	tombstones map[string]struct{}
}

// Fold builds a projection from entries. The input slice is sorted in
// place. Folding is idempotent and associative under log concatenation:
// re-folding the same log, or folding a merged log directly, yields the
// same result.
func Fold(entries []Entry) *Projection {
	Sort(entries)
	p := &Projection{
		tasks:      make(map[string]*types.Task, len(entries)),
		tombstones: make(map[string]struct{}),
	}
	for i := range entries {
		p.apply(&entries[i])
	}
	return p
}

// apply folds one entry, assuming all earlier-ordered entries have been
// applied. Deletion is terminal: a tombstoned id ignores every
// later-ordered event, which is what makes the merge convergent.
func (p *Projection) apply(e *Entry) {
	id := e.Change.TaskID
	if _, dead := p.tombstones[id]; dead {
		return
	}
	if e.Type == types.EventDeleted {
		delete(p.tasks, id)
		p.tombstones[id] = struct{}{}
		return
	}

	task, ok := p.tasks[id]
	if !ok {
		// First sight of this id. A non-created event landing first is
		// possible under clock skew; instantiate from whatever fields the
		// patch carries so every replica resolves it the same way.
		task = &types.Task{
			ID:        id,
			Status:    types.StatusOpen,
			Priority:  types.PriorityNormal,
			CreatedAt: e.TS.UTC(),
		}
		p.tasks[id] = task
	}

	c := &e.Change
	if c.Title != nil {
		task.Title = *c.Title
	}
	if c.Description != nil {
		task.Description = *c.Description
	}
	if c.Priority != nil {
		task.Priority = *c.Priority
	}
	if c.DueDate != nil {
		task.DueDate = *c.DueDate
	}
	if c.Order != nil {
		task.Order = *c.Order
	}
	if c.Archived != nil {
		task.Archived = *c.Archived
	}
	if c.Completed != nil {
		if *c.Completed {
			task.Status = types.StatusDone
			at := e.TS.UTC()
			if c.CompletedAt != nil && *c.CompletedAt != "" {
				if parsed, err := time.Parse(time.RFC3339Nano, *c.CompletedAt); err == nil {
					at = parsed.UTC()
				}
			}
			task.CompletedAt = &at
		} else {
			task.Status = types.StatusOpen
			task.CompletedAt = nil
		}
	}
	if e.TS.UTC().After(task.UpdatedAt) {
		task.UpdatedAt = e.TS.UTC()
	}
}

// Get returns the projected task by id, or false if absent or deleted.
func (p *Projection) Get(id string) (types.Task, bool) {
	task, ok := p.tasks[id]
	if !ok {
		return types.Task{}, false
	}
	return *task, true
}

// Deleted reports whether id has been tombstoned.
func (p *Projection) Deleted(id string) bool {
	_, ok := p.tombstones[id]
	return ok
}

// Len returns the number of live tasks.
func (p *Projection) Len() int {
	return len(p.tasks)
}

// List returns tasks matching the filter in a deterministic order:
// due date, then manual order, then creation time, then id.
func (p *Projection) List(filter types.TaskFilter) []types.Task {
	out := make([]types.Task, 0, len(p.tasks))
	for _, task := range p.tasks {
		if filter.Matches(task) {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.DueDate != b.DueDate {
			return a.DueDate < b.DueDate
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}
