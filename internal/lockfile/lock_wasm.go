//go:build js && wasm

package lockfile

import "os"

// WASM doesn't support file locking; a WASM environment is
// single-process anyway, so these are no-ops.

// FlockExclusiveNonBlock attempts to acquire an exclusive non-blocking lock.
func FlockExclusiveNonBlock(f *os.File) error {
	return nil
}

// FlockUnlock releases a lock on the file.
func FlockUnlock(f *os.File) error {
	return nil
}
