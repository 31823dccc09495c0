package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/types"
)

// AppendLocal assigns the next gapless local sequence number and persists
// the event. The counter bump and the insert commit together; a crash
// leaves either both or neither.
func (s *Store) AppendLocal(ctx context.Context, ev types.Event) (types.Event, error) {
	if s.closed.Load() {
		return types.Event{}, storage.ErrClosed
	}
	origin, err := s.Origin(ctx)
	if err != nil {
		return types.Event{}, err
	}
	if err := ev.Type.Validate(); err != nil {
		return types.Event{}, err
	}
	if len(ev.Payload) == 0 {
		return types.Event{}, fmt.Errorf("append: empty payload")
	}

	out := ev
	out.Origin = origin
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var lastSeq int64
		if err := tx.QueryRowContext(ctx,
			`SELECT last_seq FROM origins WHERE origin = ?`, origin).Scan(&lastSeq); err != nil {
			return wrapDBError("read local counter", err)
		}
		out.Seq = lastSeq + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (origin, seq, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
			out.Origin, out.Seq, formatTS(out.TS), string(out.Type), out.Payload); err != nil {
			return wrapDBError("insert event", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE origins SET last_seq = ?, updated_at = ? WHERE origin = ?`,
			out.Seq, nowUTC(), origin); err != nil {
			return wrapDBError("advance local counter", err)
		}
		return nil
	})
	if err != nil {
		return types.Event{}, err
	}
	debug.Logf("sqlite: appended %s event seq=%d\n", out.Type, out.Seq)
	return out, nil
}

// ListEvents returns the full log in (origin, seq) storage order.
func (s *Store) ListEvents(ctx context.Context) ([]types.Event, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, seq, ts, type, payload FROM events ORDER BY origin, seq`)
	if err != nil {
		return nil, wrapDBError("list events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListLocalEventsSince returns locally-originated events with seq > since,
// ascending. A since past the end of the log yields an empty slice.
func (s *Store) ListLocalEventsSince(ctx context.Context, since int64) ([]types.Event, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	origin, err := s.Origin(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, seq, ts, type, payload FROM events
		 WHERE origin = ? AND seq > ? ORDER BY seq`, origin, since)
	if err != nil {
		return nil, wrapDBError("list local events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ImportBatch validates and persists a batch of remote events in a single
// transaction. Duplicates by (origin, seq) are skipped, gaps are accepted,
// and remote cursor rows advance with the same commit. Events authored by
// the local origin are ignored so that import can never disturb the local
// append counter.
func (s *Store) ImportBatch(ctx context.Context, events []types.Event) (int, error) {
	if s.closed.Load() {
		return 0, storage.ErrClosed
	}
	if err := storage.ValidateBatch(events); err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	local, err := s.Origin(ctx)
	if err != nil {
		return 0, err
	}

	accepted := 0
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		high := make(map[string]int64, 4)
		for _, ev := range events {
			if ev.Origin == local {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO events (origin, seq, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
				ev.Origin, ev.Seq, formatTS(ev.TS), string(ev.Type), ev.Payload)
			if err != nil {
				return wrapDBError("insert imported event", err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				accepted++
			}
			if ev.Seq > high[ev.Origin] {
				high[ev.Origin] = ev.Seq
			}
		}
		for origin, seq := range high {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO origins (origin, last_seq, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(origin) DO UPDATE SET
				   last_seq = MAX(last_seq, excluded.last_seq),
				   updated_at = excluded.updated_at`,
				origin, seq, nowUTC()); err != nil {
				return wrapDBError("advance remote cursor", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	debug.Logf("sqlite: imported %d/%d events\n", accepted, len(events))
	return accepted, nil
}

func scanEvents(rows *sql.Rows) ([]types.Event, error) {
	var out []types.Event
	for rows.Next() {
		var (
			ev      types.Event
			ts, typ string
		)
		if err := rows.Scan(&ev.Origin, &ev.Seq, &ts, &typ, &ev.Payload); err != nil {
			return nil, wrapDBError("scan event", err)
		}
		parsed, err := parseTS(ts)
		if err != nil {
			return nil, err
		}
		ev.TS = parsed
		ev.Type = types.EventType(typ)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("iterate events", err)
	}
	return out, nil
}
