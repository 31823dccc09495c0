package sqlite

const schema = `
-- Append-only event log. Payloads are AEAD ciphertext; identity for
-- dedupe is (origin, seq).
CREATE TABLE IF NOT EXISTS events (
    origin TEXT NOT NULL,
    seq INTEGER NOT NULL CHECK(seq > 0),
    ts TEXT NOT NULL,
    type TEXT NOT NULL,
    payload BLOB NOT NULL,
    PRIMARY KEY (origin, seq)
);

-- Fold-order scan: (ts, origin, seq).
CREATE INDEX IF NOT EXISTS idx_events_order ON events(ts, origin, seq);

-- Per-origin cursors. The local origin's row is the gapless append
-- counter; remote rows record the highest imported sequence seen.
CREATE TABLE IF NOT EXISTS origins (
    origin TEXT PRIMARY KEY,
    last_seq INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

-- Key-derivation metadata, written once at init and immutable after.
CREATE TABLE IF NOT EXISTS key_state (
    id INTEGER PRIMARY KEY CHECK(id = 1),
    salt BLOB NOT NULL,
    verifier BLOB NOT NULL,
    kdf TEXT NOT NULL,
    n INTEGER NOT NULL,
    r INTEGER NOT NULL,
    p INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

-- Store-level metadata: device_id, last_exported_seq, schema_version.
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
