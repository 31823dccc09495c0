package bindings

import (
	"encoding/json"
	"errors"

	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/storage"
)

// Stable error codes crossing the boundary. Every call returns either a
// success payload or an error payload with one of these codes, never both.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeAlreadyInitialized = "already_initialized"
	CodeWrongPassphrase    = "wrong_passphrase"
	CodeNotUnlocked        = "not_unlocked"
	CodeMalformedBatch     = "malformed_batch"
	CodeStorageFailure     = "storage_failure"
	CodeSerializationError = "serialization_error"
	CodeNotOpen            = "not_open"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

// classify maps internal sentinel errors to boundary codes. Anything not
// recognized is a storage failure: surfaced, never swallowed.
func classify(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, crypto.ErrNotInitialized):
		return CodeInvalidInput
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, crypto.ErrAlreadyInitialized):
		return CodeAlreadyInitialized
	case errors.Is(err, crypto.ErrWrongPassphrase):
		return CodeWrongPassphrase
	case errors.Is(err, crypto.ErrNotUnlocked):
		return CodeNotUnlocked
	case errors.Is(err, storage.ErrMalformedBatch):
		return CodeMalformedBatch
	case errors.Is(err, session.ErrNotOpen):
		return CodeNotOpen
	default:
		return CodeStorageFailure
	}
}

func errorJSON(err error) string {
	return errorJSONCode(classify(err), err.Error())
}

func errorJSONCode(code, message string) string {
	out, marshalErr := json.Marshal(errorPayload{Error: errorBody{Code: code, Message: message}})
	if marshalErr != nil {
		return `{"error":{"code":"serialization_error","message":"encode error payload"}}`
	}
	return string(out)
}

const okJSON = `{"status":"ok"}`
