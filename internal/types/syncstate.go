package types

import "time"

// SyncState is the bookkeeping that makes export/import idempotent and
// resumable: the local origin's gapless counter, the export watermark, and
// the highest imported sequence per known remote origin.
type SyncState struct {
	Origin       string           `json:"origin"`
	LastSeq      int64            `json:"last_seq"`
	LastExported int64            `json:"last_exported"`
	Remotes      map[string]int64 `json:"remotes,omitempty"`
}

// KeyState is the persisted key-derivation metadata. It is written exactly
// once at init time and never changes for a given store; the raw key is
// never persisted, only the salt, the KDF parameters, and a verifier MAC.
type KeyState struct {
	Salt      []byte    `json:"salt"`
	Verifier  []byte    `json:"verifier"`
	KDF       string    `json:"kdf"`
	N         int       `json:"n"`
	R         int       `json:"r"`
	P         int       `json:"p"`
	CreatedAt time.Time `json:"created_at"`
}

// Initialized reports whether keys have ever been set up for the store.
func (k KeyState) Initialized() bool {
	return len(k.Salt) > 0
}
