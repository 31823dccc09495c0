// Package lockfile enforces the single-writer-per-store contract with an
// advisory flock on a sidecar lock file next to the store.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockBusy is returned when the store lock is already held by another
// process.
var ErrLockBusy = errors.New("store lock already held by another process")

// Lock is a held exclusive store lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes an exclusive non-blocking lock on path + ".lock". It fails
// with ErrLockBusy if another process holds the store.
func Acquire(path string) (*Lock, error) {
	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600) // #nosec G304 - sidecar of caller-chosen store path
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := FlockExclusiveNonBlock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) {
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	return &Lock{path: lockPath, file: f}, nil
}

// Release unlocks and closes the lock file. Idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := FlockUnlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return closeErr
}
