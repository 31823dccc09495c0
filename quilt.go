// Package quilt provides a minimal public API for embedding the encrypted
// task store in Go programs.
//
// Most embedders should use the string-payload boundary in
// internal/bindings via the C shared library (cmd/quiltlib). This package
// exports only the essential types and the session facade for Go programs
// that want to drive the core directly.
package quilt

import (
	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/types"
)

// Core types for working with tasks.
type (
	Task       = types.Task
	TaskFilter = types.TaskFilter
	Event      = types.Event
	SyncState  = types.SyncState
	Status     = types.Status
	Priority   = types.Priority
)

// Status constants.
const (
	StatusOpen = types.StatusOpen
	StatusDone = types.StatusDone
)

// Priority constants.
const (
	PriorityLow    = types.PriorityLow
	PriorityNormal = types.PriorityNormal
	PriorityHigh   = types.PriorityHigh
)

// Session lifecycle.
type (
	Session       = session.Session
	Config        = session.Config
	CreateRequest = service.CreateRequest
	UpdateRequest = service.UpdateRequest
	ReorderItem   = service.ReorderItem
)

// NewSession returns an unopened session for the given config.
func NewSession(cfg Config) *Session {
	return session.New(cfg)
}
