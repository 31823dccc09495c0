// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	// Import SQLite driver
	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/storage"
)

const schemaVersion = "1"

// Store implements storage.Store on a single SQLite file.
type Store struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool

	origin string // cached after first read
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// setupWASMCache configures WASM compilation caching to reduce SQLite
// startup time. Falls back to an in-memory cache if the filesystem cache
// cannot be created.
func setupWASMCache() {
	var cache wazero.CompilationCache
	if userCache, err := os.UserCacheDir(); err == nil {
		dir := filepath.Join(userCache, "quilt", "wasm")
		if c, err := wazero.NewCompilationCacheWithDir(dir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

func init() {
	setupWASMCache()
}

// Open opens (creating if necessary) the store at path. The deviceID is
// persisted on first open and ignored afterwards; pass "" to have one
// generated.
func Open(ctx context.Context, path string, deviceID string) (*Store, error) {
	connStr, err := connString(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// In-memory databases are isolated per connection; force a single
	// connection so every statement sees the same data. For file-backed
	// stores a single connection also matches the single-writer model.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(ctx, deviceID); err != nil {
		_ = db.Close()
		return nil, err
	}
	debug.Logf("sqlite: opened store at %s\n", path)
	return s, nil
}

func connString(path string) (string, error) {
	const pragmas = "_pragma=busy_timeout(30000)&_pragma=foreign_keys(ON)&_time_format=sqlite"
	if path == ":memory:" {
		return "file::memory:?" + pragmas, nil
	}
	if strings.HasPrefix(path, "file:") {
		if strings.Contains(path, "?") {
			return path + "&" + pragmas, nil
		}
		return path + "?" + pragmas, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&" + pragmas, nil
}

// initialize applies the schema and seeds store metadata exactly once.
func (s *Store) initialize(ctx context.Context, deviceID string) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return wrapDBError("apply schema", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM meta WHERE key = 'device_id'`).Scan(&existing)
		if err == nil {
			s.origin = existing
			return nil
		}
		if err != sql.ErrNoRows {
			return wrapDBError("read device_id", err)
		}
		if deviceID == "" {
			deviceID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES ('device_id', ?), ('schema_version', ?), ('last_exported_seq', '0')`,
			deviceID, schemaVersion); err != nil {
			return wrapDBError("seed meta", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO origins (origin, last_seq, updated_at) VALUES (?, 0, ?)`,
			deviceID, nowUTC()); err != nil {
			return wrapDBError("seed local origin", err)
		}
		s.origin = deviceID
		return nil
	})
}

// Origin returns the store's replica identifier.
func (s *Store) Origin(ctx context.Context) (string, error) {
	if s.closed.Load() {
		return "", storage.ErrClosed
	}
	if s.origin != "" {
		return s.origin, nil
	}
	var origin string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'device_id'`).Scan(&origin)
	if err != nil {
		return "", wrapDBError("read device_id", err)
	}
	s.origin = origin
	return origin, nil
}

// Close releases the database. Idempotent: second and later calls are no-ops.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	debug.Logf("sqlite: closing store at %s\n", s.dbPath)
	return s.db.Close()
}

// withTx executes fn within a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapDBError("commit transaction", err)
	}
	return nil
}
