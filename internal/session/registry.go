package session

import (
	"sync"
	"sync/atomic"
)

// The process-wide handle registry. Handles are opaque 64-bit integers
// generated here; they never outlive Destroy, and reuse after Destroy
// fails with ErrNotOpen rather than touching freed state.
var (
	handleSeq atomic.Uint64
	regMu     sync.RWMutex
	registry  = make(map[uint64]*Session)
)

// Register creates a session for cfg and returns its new handle.
func Register(cfg Config) uint64 {
	s := New(cfg)
	h := handleSeq.Add(1)
	regMu.Lock()
	registry[h] = s
	regMu.Unlock()
	return h
}

// Lookup resolves a handle. Unknown or destroyed handles fail with
// ErrNotOpen.
func Lookup(h uint64) (*Session, error) {
	regMu.RLock()
	s, ok := registry[h]
	regMu.RUnlock()
	if !ok {
		return nil, ErrNotOpen
	}
	return s, nil
}

// Destroy closes the session if it is open and removes the handle.
// Destroying an unknown handle is a no-op.
func Destroy(h uint64) {
	regMu.Lock()
	s, ok := registry[h]
	delete(registry, h)
	regMu.Unlock()
	if ok {
		_ = s.Close()
	}
}
