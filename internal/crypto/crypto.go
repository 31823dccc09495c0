// Package crypto owns passphrase-derived key material and the
// locked/unlocked lifecycle. The raw key exists only in memory while the
// manager is unlocked and is zeroed on every transition out of that state.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/quiltdb/quilt/internal/types"
)

// Sentinel errors for key-lifecycle violations.
var (
	// ErrAlreadyInitialized indicates InitKeys was called on a store that
	// already has persisted key state.
	ErrAlreadyInitialized = errors.New("keys already initialized")

	// ErrNotInitialized indicates UnlockKeys was called before InitKeys.
	ErrNotInitialized = errors.New("keys not initialized")

	// ErrWrongPassphrase indicates the supplied passphrase does not match
	// the stored verifier. The manager stays locked.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrNotUnlocked indicates an encrypt/decrypt was attempted while the
	// manager is locked or uninitialized.
	ErrNotUnlocked = errors.New("keys not unlocked")
)

// State is the key-lifecycle state machine position.
type State int

const (
	StateUninitialized State = iota
	StateLocked
	StateUnlocked
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "uninitialized"
	}
}

const (
	saltSize = 16

	// scrypt parameters: memory-hard, interactive-login cost.
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// verifierContext is the fixed known value the verifier MAC is computed
// over. Storing HMAC(key, verifierContext) lets UnlockKeys validate a
// passphrase without persisting the key or anything derivable into it.
var verifierContext = []byte("quilt key verifier v1")

// Manager holds the in-memory master key while unlocked.
type Manager struct {
	mu    sync.Mutex
	state State
	key   []byte
	meta  types.KeyState
}

// NewManager returns a manager in the Uninitialized state.
func NewManager() *Manager {
	return &Manager{state: StateUninitialized}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsUnlocked reports whether a key is currently held.
func (m *Manager) IsUnlocked() bool {
	return m.State() == StateUnlocked
}

// Load moves a fresh manager to Locked using key state read from a
// persisted store. It is a no-op for uninitialized key state.
func (m *Manager) Load(ks types.KeyState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUninitialized || !ks.Initialized() {
		return
	}
	m.meta = ks
	m.state = StateLocked
}

// Init derives a fresh key from the passphrase with a new random salt,
// computes the verifier, and moves to Unlocked. The returned KeyState must
// be persisted by the caller; it never changes afterwards.
func (m *Manager) Init(passphrase string) (types.KeyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUninitialized {
		return types.KeyState{}, ErrAlreadyInitialized
	}
	if passphrase == "" {
		return types.KeyState{}, fmt.Errorf("passphrase is required")
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return types.KeyState{}, fmt.Errorf("salt: %w", err)
	}
	key, err := deriveKey(passphrase, salt, scryptN, scryptR, scryptP)
	if err != nil {
		return types.KeyState{}, err
	}
	m.key = key
	m.meta = types.KeyState{
		Salt:      salt,
		Verifier:  computeVerifier(key),
		KDF:       "scrypt",
		N:         scryptN,
		R:         scryptR,
		P:         scryptP,
		CreatedAt: time.Now().UTC(),
	}
	m.state = StateUnlocked
	return m.meta, nil
}

// Unlock derives a key from the passphrase and the stored salt and checks
// it against the verifier. A mismatch leaves the manager Locked.
func (m *Manager) Unlock(passphrase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateUnlocked:
		return nil
	}
	key, err := deriveKey(passphrase, m.meta.Salt, m.meta.N, m.meta.R, m.meta.P)
	if err != nil {
		return err
	}
	if !hmac.Equal(computeVerifier(key), m.meta.Verifier) {
		zero(key)
		return ErrWrongPassphrase
	}
	m.key = key
	m.state = StateUnlocked
	return nil
}

// Lock zeroes the in-memory key and returns to Locked. Safe to call in any
// state; uninitialized managers stay uninitialized.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	zero(m.key)
	m.key = nil
	if m.state == StateUnlocked {
		m.state = StateLocked
	}
}

// Encrypt seals plaintext with XChaCha20-Poly1305 under the unlocked key.
// Output layout is nonce || ciphertext.
func (m *Manager) Encrypt(plaintext []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked {
		return nil, ErrNotUnlocked
	}
	aead, err := chacha20poly1305.NewX(m.key)
	if err != nil {
		return nil, fmt.Errorf("create aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a nonce-prefixed ciphertext produced by Encrypt.
func (m *Manager) Decrypt(ciphertext []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked {
		return nil, ErrNotUnlocked
	}
	if len(ciphertext) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("ciphertext too short")
	}
	aead, err := chacha20poly1305.NewX(m.key)
	if err != nil {
		return nil, fmt.Errorf("create aead: %w", err)
	}
	nonce := ciphertext[:chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, ciphertext[chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte, n, r, p int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("salt is required")
	}
	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

func computeVerifier(key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(verifierContext)
	return mac.Sum(nil)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
