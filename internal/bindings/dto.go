package bindings

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/quiltdb/quilt/internal/types"
)

// TaskDTO is the boundary representation of a task. Timestamps cross as
// RFC3339Nano strings, dates as "2006-01-02", and the empty string is the
// unset sentinel for both.
type TaskDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	Order       int64  `json:"order"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	CompletedAt string `json:"completed_at"`
	Archived    bool   `json:"archived"`
}

// EventDTO is the boundary representation of a log entry. The payload is
// base64 ciphertext; it is never decrypted at the boundary.
type EventDTO struct {
	Origin  string `json:"origin"`
	Seq     int64  `json:"seq"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// SyncStateDTO is the boundary representation of the sync cursors.
type SyncStateDTO struct {
	Origin       string           `json:"origin"`
	LastSeq      int64            `json:"last_seq"`
	LastExported int64            `json:"last_exported"`
	Remotes      map[string]int64 `json:"remotes"`
}

// ReorderItemDTO represents one reorder mutation.
type ReorderItemDTO struct {
	ID      string  `json:"id"`
	Order   int64   `json:"order"`
	DueDate *string `json:"due_date,omitempty"`
}

// TaskFilterDTO is the boundary representation of a list filter.
type TaskFilterDTO struct {
	Status   string `json:"status,omitempty"`
	Archived *bool  `json:"archived,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

func taskToDTO(task types.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Order:       task.Order,
		CreatedAt:   formatTime(task.CreatedAt),
		UpdatedAt:   formatTime(task.UpdatedAt),
		Archived:    task.Archived,
	}
	if task.CompletedAt != nil {
		dto.CompletedAt = formatTime(*task.CompletedAt)
	}
	return dto
}

func eventToDTO(ev types.Event) EventDTO {
	return EventDTO{
		Origin:  ev.Origin,
		Seq:     ev.Seq,
		TS:      formatTime(ev.TS),
		Type:    string(ev.Type),
		Payload: base64.StdEncoding.EncodeToString(ev.Payload),
	}
}

func dtoToEvent(dto EventDTO) (types.Event, error) {
	ts, err := parseTime(dto.TS)
	if err != nil {
		return types.Event{}, fmt.Errorf("event %s/%d: %w", dto.Origin, dto.Seq, err)
	}
	payload, err := base64.StdEncoding.DecodeString(dto.Payload)
	if err != nil {
		return types.Event{}, fmt.Errorf("event %s/%d: decode payload: %w", dto.Origin, dto.Seq, err)
	}
	return types.Event{
		Origin:  dto.Origin,
		Seq:     dto.Seq,
		TS:      ts,
		Type:    types.EventType(dto.Type),
		Payload: payload,
	}, nil
}

func syncStateToDTO(state types.SyncState) SyncStateDTO {
	remotes := state.Remotes
	if remotes == nil {
		remotes = map[string]int64{}
	}
	return SyncStateDTO{
		Origin:       state.Origin,
		LastSeq:      state.LastSeq,
		LastExported: state.LastExported,
		Remotes:      remotes,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(input string) (time.Time, error) {
	if input == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", input, err)
	}
	return t.UTC(), nil
}
