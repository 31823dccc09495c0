// Package service implements the domain API all task mutations funnel
// through: validate, emit exactly one event per logical change, refresh
// the projection, return the projected task.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/projector"
	"github.com/quiltdb/quilt/internal/storage"
	"github.com/quiltdb/quilt/internal/types"
)

// ErrInvalidInput indicates a validation failure. Nothing reaches the
// event store when this is returned.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound indicates the operation referenced an unknown task id.
var ErrNotFound = errors.New("task not found")

// Service is the task domain API over one open store. Callers are
// responsible for serializing mutations (the session facade holds the
// write lock).
type Service struct {
	store storage.Store
	keys  *crypto.Manager
	view  *projector.View
}

// New wires a service over an open store, key manager, and view.
func New(store storage.Store, keys *crypto.Manager, view *projector.View) *Service {
	return &Service{store: store, keys: keys, view: view}
}

// CreateRequest carries the caller-supplied fields for a new task.
type CreateRequest struct {
	Title       string
	Description string
	Priority    types.Priority
	DueDate     string
	Order       *int64
}

// Create validates the request, emits a created event, and returns the
// projected task.
func (s *Service) Create(ctx context.Context, req CreateRequest) (types.Task, error) {
	if req.Title == "" {
		return types.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.Priority == "" {
		req.Priority = types.PriorityNormal
	}
	if err := req.Priority.Validate(); err != nil {
		return types.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateDate(req.DueDate); err != nil {
		return types.Task{}, err
	}

	id := uuid.NewString()
	order := s.nextOrder(req.DueDate)
	if req.Order != nil {
		order = *req.Order
	}
	change := types.Change{
		TaskID:      id,
		Title:       &req.Title,
		Description: &req.Description,
		Priority:    &req.Priority,
		DueDate:     &req.DueDate,
		Order:       &order,
	}
	if err := s.emit(ctx, types.EventCreated, change); err != nil {
		return types.Task{}, err
	}
	return s.projected(id)
}

// UpdateRequest carries a partial update; nil fields are untouched.
type UpdateRequest struct {
	ID          string
	Title       *string
	Description *string
	Priority    *types.Priority
	DueDate     *string
	Order       *int64
	Archived    *bool
}

// Update validates and applies a field patch to an existing task.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (types.Task, error) {
	if req.ID == "" {
		return types.Task{}, fmt.Errorf("%w: missing id", ErrInvalidInput)
	}
	if req.Title != nil && *req.Title == "" {
		return types.Task{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if req.Priority != nil {
		if err := req.Priority.Validate(); err != nil {
			return types.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if req.DueDate != nil {
		if err := validateDate(*req.DueDate); err != nil {
			return types.Task{}, err
		}
	}
	if _, ok := s.view.Projection().Get(req.ID); !ok {
		return types.Task{}, ErrNotFound
	}
	change := types.Change{
		TaskID:      req.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Order:       req.Order,
		Archived:    req.Archived,
	}
	if err := s.emit(ctx, types.EventUpdated, change); err != nil {
		return types.Task{}, err
	}
	return s.projected(req.ID)
}

// Delete emits a tombstone for the task. Historical events are retained;
// the task is simply absent from every future projection.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidInput)
	}
	if _, ok := s.view.Projection().Get(id); !ok {
		return ErrNotFound
	}
	return s.emit(ctx, types.EventDeleted, types.Change{TaskID: id})
}

// ReorderItem assigns a new rank (and optionally a new due-date group) to
// one task.
type ReorderItem struct {
	ID      string
	Order   int64
	DueDate *string
}

// Reorder applies the caller's new sibling ranks, one event per item. The
// caller owns uniqueness of ranks within a grouping context; contiguity is
// neither required nor enforced.
func (s *Service) Reorder(ctx context.Context, items []ReorderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty reorder", ErrInvalidInput)
	}
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: reorder item missing id", ErrInvalidInput)
		}
		if item.DueDate != nil {
			if err := validateDate(*item.DueDate); err != nil {
				return err
			}
		}
		if _, ok := s.view.Projection().Get(item.ID); !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, item.ID)
		}
	}
	for _, item := range items {
		order := item.Order
		change := types.Change{
			TaskID:  item.ID,
			Order:   &order,
			DueDate: item.DueDate,
		}
		if err := s.emit(ctx, types.EventReordered, change); err != nil {
			return err
		}
	}
	return nil
}

// SetDueDate sets or clears (empty string) the task's due date.
func (s *Service) SetDueDate(ctx context.Context, id, dueDate string) (types.Task, error) {
	if id == "" {
		return types.Task{}, fmt.Errorf("%w: missing id", ErrInvalidInput)
	}
	if err := validateDate(dueDate); err != nil {
		return types.Task{}, err
	}
	if _, ok := s.view.Projection().Get(id); !ok {
		return types.Task{}, ErrNotFound
	}
	change := types.Change{TaskID: id, DueDate: &dueDate}
	if err := s.emit(ctx, types.EventDueDateSet, change); err != nil {
		return types.Task{}, err
	}
	return s.projected(id)
}

// SetCompleted toggles completion. Completing stamps completed_at;
// reopening clears it.
func (s *Service) SetCompleted(ctx context.Context, id string, completed bool) (types.Task, error) {
	if id == "" {
		return types.Task{}, fmt.Errorf("%w: missing id", ErrInvalidInput)
	}
	if _, ok := s.view.Projection().Get(id); !ok {
		return types.Task{}, ErrNotFound
	}
	change := types.Change{TaskID: id, Completed: &completed}
	if completed {
		at := time.Now().UTC().Format(time.RFC3339Nano)
		change.CompletedAt = &at
	}
	if err := s.emit(ctx, types.EventCompletionSet, change); err != nil {
		return types.Task{}, err
	}
	return s.projected(id)
}

// List returns the projected tasks matching the filter.
func (s *Service) List(filter types.TaskFilter) []types.Task {
	return s.view.Projection().List(filter)
}

// Get returns one projected task.
func (s *Service) Get(id string) (types.Task, error) {
	task, ok := s.view.Projection().Get(id)
	if !ok {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

// emit encrypts one change, appends it durably, and extends the view.
// Requires the key manager to be unlocked.
func (s *Service) emit(ctx context.Context, typ types.EventType, change types.Change) error {
	plaintext, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	payload, err := s.keys.Encrypt(plaintext)
	if err != nil {
		return err
	}
	appended, err := s.store.AppendLocal(ctx, types.Event{
		TS:      time.Now().UTC(),
		Type:    typ,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	s.view.Extend(projector.Entry{
		Origin: appended.Origin,
		Seq:    appended.Seq,
		TS:     appended.TS,
		Type:   appended.Type,
		Change: change,
	})
	return nil
}

// projected returns the task as the fold now sees it.
func (s *Service) projected(id string) (types.Task, error) {
	task, ok := s.view.Projection().Get(id)
	if !ok {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

// nextOrder picks a rank one past the current maximum within the due-date
// group, so new tasks land at the end of their group.
func (s *Service) nextOrder(dueDate string) int64 {
	var max int64
	for _, task := range s.view.Projection().List(types.TaskFilter{}) {
		if task.DueDate != dueDate {
			continue
		}
		if task.Order > max {
			max = task.Order
		}
	}
	return max + 1
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(types.DateFormat, date); err != nil {
		return fmt.Errorf("%w: invalid due_date %q", ErrInvalidInput, date)
	}
	return nil
}
