// Package session binds one open store to an opaque numeric handle: the
// store file, its key manager, its projection, and the services over them,
// with an explicit open/close lifecycle.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/lockfile"
	"github.com/quiltdb/quilt/internal/projector"
	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/storage/sqlite"
	"github.com/quiltdb/quilt/internal/syncer"
	"github.com/quiltdb/quilt/internal/types"
)

// ErrNotOpen is returned for operations on a session that is not open,
// including double-close and use of a destroyed handle.
var ErrNotOpen = errors.New("session not open")

// Config locates and identifies a store.
type Config struct {
	StoragePath string `json:"storage_path"`
	DeviceID    string `json:"device_id,omitempty"`
}

// Session owns exclusive access to one on-disk store. Mutations are
// serialized by the write lock; reads see consistent snapshots. Opening
// the same store from two sessions concurrently is a caller error and is
// rejected by the flock guard.
type Session struct {
	mu   sync.RWMutex
	cfg  Config
	open bool

	store  storage.Store
	keys   *crypto.Manager
	view   *projector.View
	svc    *service.Service
	engine *syncer.Engine
	flock  *lockfile.Lock
}

// New returns an unopened session for the given config.
func New(cfg Config) *Session {
	if cfg.StoragePath == "" {
		cfg.StoragePath = "quilt.db"
	}
	return &Session{cfg: cfg}
}

// Open acquires the store lock, opens the database, and loads persisted
// key state (moving the key manager to Locked if keys exist).
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}

	var flock *lockfile.Lock
	if diskBacked(s.cfg.StoragePath) {
		var err error
		flock, err = lockfile.Acquire(s.cfg.StoragePath)
		if err != nil {
			return err
		}
	}

	store, err := sqlite.Open(ctx, s.cfg.StoragePath, s.cfg.DeviceID)
	if err != nil {
		if flock != nil {
			_ = flock.Release()
		}
		return err
	}

	keys := crypto.NewManager()
	ks, err := store.KeyState(ctx)
	if err != nil {
		_ = store.Close()
		if flock != nil {
			_ = flock.Release()
		}
		return err
	}
	keys.Load(ks)

	view := projector.NewView()
	s.store = store
	s.keys = keys
	s.view = view
	s.svc = service.New(store, keys, view)
	s.engine = syncer.New(store)
	s.flock = flock
	s.open = true
	debug.Logf("session: opened %s (keys %s)\n", s.cfg.StoragePath, keys.State())
	return nil
}

// Close flushes and releases everything: the projection and key material
// are dropped from memory, the database and flock are released. A second
// close fails with ErrNotOpen, never crashes.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.view.Reset()
	s.keys.Lock()
	err := s.store.Close()
	if s.flock != nil {
		if releaseErr := s.flock.Release(); err == nil {
			err = releaseErr
		}
		s.flock = nil
	}
	s.open = false
	debug.Logf("session: closed %s\n", s.cfg.StoragePath)
	return err
}

// InitKeys sets up encryption for a fresh store and leaves it unlocked.
// Fails with crypto.ErrAlreadyInitialized on a store that has keys.
func (s *Session) InitKeys(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	ks, err := s.keys.Init(passphrase)
	if err != nil {
		return err
	}
	if err := s.store.SaveKeyState(ctx, ks); err != nil {
		// Persist failed; don't keep a key the store doesn't know about.
		s.keys.Lock()
		return err
	}
	return nil
}

// ExportKeyState returns the persisted key metadata (salt, verifier and
// KDF parameters, never the key itself) for provisioning another device
// of the same user. The passphrase still has to travel out of band.
func (s *Session) ExportKeyState(ctx context.Context) (types.KeyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.KeyState{}, ErrNotOpen
	}
	ks, err := s.store.KeyState(ctx)
	if err != nil {
		return types.KeyState{}, err
	}
	if !ks.Initialized() {
		return types.KeyState{}, crypto.ErrNotInitialized
	}
	return ks, nil
}

// AdoptKeyState provisions a fresh store with key metadata exported from
// another device, so both derive the same key from the same passphrase.
// Fails with crypto.ErrAlreadyInitialized if this store has keys.
func (s *Session) AdoptKeyState(ctx context.Context, ks types.KeyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	if s.keys.State() != crypto.StateUninitialized {
		return crypto.ErrAlreadyInitialized
	}
	if !ks.Initialized() {
		return fmt.Errorf("%w: key state missing salt", service.ErrInvalidInput)
	}
	if err := s.store.SaveKeyState(ctx, ks); err != nil {
		return err
	}
	s.keys.Load(ks)
	return nil
}

// UnlockKeys validates the passphrase against the stored verifier and, on
// success, rebuilds the projection from the log. A mismatch fails with
// crypto.ErrWrongPassphrase and leaves the session locked.
func (s *Session) UnlockKeys(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	if err := s.keys.Unlock(passphrase); err != nil {
		return err
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return err
	}
	return s.view.Rebuild(s.keys, events)
}

// ListTasks returns projected tasks matching the filter. Requires an
// unlocked session: the projection only exists after decrypt.
func (s *Session) ListTasks(filter types.TaskFilter) ([]types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, ErrNotOpen
	}
	if !s.keys.IsUnlocked() {
		return nil, crypto.ErrNotUnlocked
	}
	return s.svc.List(filter), nil
}

// CreateTask validates and appends a created event, returning the
// projected task.
func (s *Session) CreateTask(ctx context.Context, req service.CreateRequest) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.Task{}, ErrNotOpen
	}
	return s.svc.Create(ctx, req)
}

// UpdateTask applies a field patch to an existing task.
func (s *Session) UpdateTask(ctx context.Context, req service.UpdateRequest) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.Task{}, ErrNotOpen
	}
	return s.svc.Update(ctx, req)
}

// DeleteTask tombstones a task.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	return s.svc.Delete(ctx, id)
}

// ReorderTasks applies new sibling ranks.
func (s *Session) ReorderTasks(ctx context.Context, items []service.ReorderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	return s.svc.Reorder(ctx, items)
}

// SetDueDate sets or clears a task's due date.
func (s *Session) SetDueDate(ctx context.Context, id, dueDate string) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.Task{}, ErrNotOpen
	}
	return s.svc.SetDueDate(ctx, id, dueDate)
}

// SetCompleted toggles a task's completion state.
func (s *Session) SetCompleted(ctx context.Context, id string, completed bool) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return types.Task{}, ErrNotOpen
	}
	return s.svc.SetCompleted(ctx, id, completed)
}

// ExportEvents returns local events above the watermark argument and
// advances the persisted export watermark.
func (s *Session) ExportEvents(ctx context.Context, since int64) ([]types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, ErrNotOpen
	}
	return s.engine.Export(ctx, since)
}

// ImportEvents merges a remote batch. Requires an unlocked session so the
// projection can be refreshed from the merged log.
func (s *Session) ImportEvents(ctx context.Context, events []types.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, ErrNotOpen
	}
	if !s.keys.IsUnlocked() {
		return 0, crypto.ErrNotUnlocked
	}
	return s.engine.Import(ctx, events, s.keys, s.view)
}

// GetSyncState returns the sync cursors.
func (s *Session) GetSyncState(ctx context.Context) (types.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return types.SyncState{}, ErrNotOpen
	}
	return s.engine.State(ctx)
}

// DebugDecryptEvent decrypts one base64 payload for support/debugging.
// Requires Unlocked; never mutates the store.
func (s *Session) DebugDecryptEvent(payloadBase64 string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return "", ErrNotOpen
	}
	if payloadBase64 == "" {
		return "", fmt.Errorf("%w: payload is required", service.ErrInvalidInput)
	}
	raw, err := base64.StdEncoding.DecodeString(payloadBase64)
	if err != nil {
		return "", fmt.Errorf("%w: decode payload: %v", service.ErrInvalidInput, err)
	}
	plaintext, err := s.keys.Decrypt(raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// KeyManagerState exposes the key lifecycle state for diagnostics.
func (s *Session) KeyManagerState() crypto.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keys == nil {
		return crypto.StateUninitialized
	}
	return s.keys.State()
}

func diskBacked(path string) bool {
	return path != ":memory:" && !strings.Contains(path, "mode=memory")
}
