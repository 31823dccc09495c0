package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/types"
)

// KeyState returns the persisted key metadata. A store whose keys were
// never initialized returns a zero KeyState, not an error.
func (s *Store) KeyState(ctx context.Context) (types.KeyState, error) {
	if s.closed.Load() {
		return types.KeyState{}, storage.ErrClosed
	}
	var (
		ks types.KeyState
		ts string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT salt, verifier, kdf, n, r, p, created_at FROM key_state WHERE id = 1`).
		Scan(&ks.Salt, &ks.Verifier, &ks.KDF, &ks.N, &ks.R, &ks.P, &ts)
	if err == sql.ErrNoRows {
		return types.KeyState{}, nil
	}
	if err != nil {
		return types.KeyState{}, wrapDBError("read key state", err)
	}
	created, err := parseTS(ts)
	if err != nil {
		return types.KeyState{}, err
	}
	ks.CreatedAt = created
	return ks, nil
}

// SaveKeyState persists key metadata exactly once. Key rotation is not
// supported, so an existing row is an error.
func (s *Store) SaveKeyState(ctx context.Context, ks types.KeyState) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if !ks.Initialized() {
		return fmt.Errorf("save key state: missing salt")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO key_state (id, salt, verifier, kdf, n, r, p, created_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		ks.Salt, ks.Verifier, ks.KDF, ks.N, ks.R, ks.P, formatTS(ks.CreatedAt))
	if err != nil {
		return wrapDBError("save key state", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save key state: already initialized")
	}
	return nil
}
