//go:build !wasm

package lockfile

import (
	"errors"
	"os"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	path := t.TempDir() + "/quilt.db"

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("sidecar lock file missing: %v", err)
	}

	// The exclusive lock excludes a second acquirer.
	if _, err := Acquire(path); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second Acquire = %v, want ErrLockBusy", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Released means re-acquirable.
	lock2, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer lock2.Release()

	// Release is idempotent, including on nil.
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}

func TestAcquireSeparateStores(t *testing.T) {
	dir := t.TempDir()
	a, err := Acquire(dir + "/a.db")
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	defer a.Release()
	b, err := Acquire(dir + "/b.db")
	if err != nil {
		t.Fatalf("Acquire b: %v", err)
	}
	defer b.Release()
}
