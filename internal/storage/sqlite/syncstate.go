package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/types"
)

// SyncState returns the local counter, export watermark, and remote cursors.
func (s *Store) SyncState(ctx context.Context) (types.SyncState, error) {
	if s.closed.Load() {
		return types.SyncState{}, storage.ErrClosed
	}
	origin, err := s.Origin(ctx)
	if err != nil {
		return types.SyncState{}, err
	}
	state := types.SyncState{Origin: origin, Remotes: make(map[string]int64)}

	rows, err := s.db.QueryContext(ctx, `SELECT origin, last_seq FROM origins`)
	if err != nil {
		return types.SyncState{}, wrapDBError("list origins", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			o   string
			seq int64
		)
		if err := rows.Scan(&o, &seq); err != nil {
			return types.SyncState{}, wrapDBError("scan origin", err)
		}
		if o == origin {
			state.LastSeq = seq
		} else {
			state.Remotes[o] = seq
		}
	}
	if err := rows.Err(); err != nil {
		return types.SyncState{}, wrapDBError("iterate origins", err)
	}

	var exported string
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'last_exported_seq'`).Scan(&exported)
	if err != nil && err != sql.ErrNoRows {
		return types.SyncState{}, wrapDBError("read export watermark", err)
	}
	if exported != "" {
		state.LastExported, _ = strconv.ParseInt(exported, 10, 64)
	}
	return state, nil
}

// SetLastExported advances the export watermark. Rewinds are ignored so a
// stale caller can never cause already-exported events to look pending.
func (s *Store) SetLastExported(ctx context.Context, seq int64) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE meta SET value = ? WHERE key = 'last_exported_seq' AND CAST(value AS INTEGER) < ?`,
		strconv.FormatInt(seq, 10), seq)
	return wrapDBError("set export watermark", err)
}
