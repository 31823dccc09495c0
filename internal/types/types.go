// Package types defines core data structures for the quilt task store.
package types

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// DateFormat is the textual calendar format used at every boundary.
// The empty string is the "unset" sentinel; a real date at the epoch
// still renders as "1970-01-01" and is never confused with unset.
const DateFormat = "2006-01-02"

// Task is the materialized view of a task, derived from the event log.
// It is a cache, never the source of truth.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     string     `json:"due_date,omitempty"` // DateFormat, "" = unset
	Order       int64      `json:"order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
}

// Validate enforces the task invariants that hold for every projected task.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if err := t.Priority.Validate(); err != nil {
		return err
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateFormat, t.DueDate); err != nil {
			return fmt.Errorf("invalid due_date %q", t.DueDate)
		}
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("updated_at before created_at")
	}
	if t.Status == StatusDone && t.CompletedAt == nil {
		return fmt.Errorf("completed_at required when status=done")
	}
	if t.Status != StatusDone && t.CompletedAt != nil {
		return fmt.Errorf("completed_at must be unset when status=%s", t.Status)
	}
	return nil
}

// Validate checks that the status is a member of the closed set.
func (s Status) Validate() error {
	switch s {
	case StatusOpen, StatusDone:
		return nil
	}
	return fmt.Errorf("invalid status: %s", string(s))
}

// Validate checks that the priority is a member of the closed set.
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return nil
	}
	return fmt.Errorf("invalid priority: %s", string(p))
}

// TaskFilter selects tasks from the projection.
type TaskFilter struct {
	Status   Status `json:"status,omitempty"`
	Archived *bool  `json:"archived,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

// Matches reports whether the task passes the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Archived != nil && t.Archived != *f.Archived {
		return false
	}
	if f.DueDate != "" && t.DueDate != f.DueDate {
		return false
	}
	return true
}
