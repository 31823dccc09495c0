// Package bindings is the stable string-payload boundary over the session
// registry: opaque numeric handles in, JSON payloads out. It is the only
// surface embedders (FFI shims, the CLI's scripting mode) are expected to
// call.
package bindings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/types"
)

// ops complete quickly and have no cancellation concept; long imports are
// chunked by the caller rather than cancelled mid-flight.
var ctx = context.Background()

// New registers a session for the JSON config and returns its handle.
// Config errors surface later, at Open; New itself cannot fail.
func New(configJSON string) uint64 {
	var cfg session.Config
	if configJSON != "" {
		_ = json.Unmarshal([]byte(configJSON), &cfg)
	}
	return session.Register(cfg)
}

// Destroy closes (if open) and unregisters the handle. Idempotent.
func Destroy(handle uint64) {
	session.Destroy(handle)
}

// Open brackets the start of exclusive access to the store.
func Open(handle uint64) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	if err := s.Open(ctx); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// Close flushes and releases the store. A second close reports not_open.
func Close(handle uint64) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	if err := s.Close(); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// InitKeys initializes encryption for a fresh store.
func InitKeys(handle uint64, passphrase string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	if err := s.InitKeys(ctx, passphrase); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// UnlockKeys validates the passphrase and unlocks the store.
func UnlockKeys(handle uint64, passphrase string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	if err := s.UnlockKeys(ctx, passphrase); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// ListTasks returns a JSON array of TaskDTO matching the filter JSON.
func ListTasks(handle uint64, filterJSON string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	var filterDTO TaskFilterDTO
	if filterJSON != "" {
		if err := json.Unmarshal([]byte(filterJSON), &filterDTO); err != nil {
			return errorJSONCode(CodeSerializationError, fmt.Sprintf("decode filter: %v", err))
		}
	}
	tasks, err := s.ListTasks(types.TaskFilter{
		Status:   types.Status(filterDTO.Status),
		Archived: filterDTO.Archived,
		DueDate:  filterDTO.DueDate,
	})
	if err != nil {
		return errorJSON(err)
	}
	out := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToDTO(task))
	}
	return marshal(out)
}

// createTaskDTO is the accepted input shape for CreateTask.
type createTaskDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	Order       *int64 `json:"order"`
}

// CreateTask accepts task JSON and returns the projected TaskDTO.
func CreateTask(handle uint64, taskJSON string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	var dto createTaskDTO
	if err := json.Unmarshal([]byte(taskJSON), &dto); err != nil {
		return errorJSONCode(CodeSerializationError, fmt.Sprintf("decode task: %v", err))
	}
	task, err := s.CreateTask(ctx, service.CreateRequest{
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    types.Priority(dto.Priority),
		DueDate:     dto.DueDate,
		Order:       dto.Order,
	})
	if err != nil {
		return errorJSON(err)
	}
	return marshal(taskToDTO(task))
}

// updateTaskDTO is the accepted input shape for UpdateTask: a partial
// patch where absent fields are untouched.
type updateTaskDTO struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	Order       *int64  `json:"order"`
	Archived    *bool   `json:"archived"`
}

// UpdateTask accepts a partial task patch and returns the projected TaskDTO.
func UpdateTask(handle uint64, taskJSON string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	var dto updateTaskDTO
	if err := json.Unmarshal([]byte(taskJSON), &dto); err != nil {
		return errorJSONCode(CodeSerializationError, fmt.Sprintf("decode task: %v", err))
	}
	req := service.UpdateRequest{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		DueDate:     dto.DueDate,
		Order:       dto.Order,
		Archived:    dto.Archived,
	}
	if dto.Priority != nil {
		p := types.Priority(*dto.Priority)
		req.Priority = &p
	}
	task, err := s.UpdateTask(ctx, req)
	if err != nil {
		return errorJSON(err)
	}
	return marshal(taskToDTO(task))
}

// DeleteTask tombstones a task by id.
func DeleteTask(handle uint64, taskID string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	if err := s.DeleteTask(ctx, taskID); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// ReorderTasks accepts a JSON array of ReorderItemDTO.
func ReorderTasks(handle uint64, reorderJSON string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	var items []ReorderItemDTO
	if err := json.Unmarshal([]byte(reorderJSON), &items); err != nil {
		return errorJSONCode(CodeSerializationError, fmt.Sprintf("decode reorder: %v", err))
	}
	req := make([]service.ReorderItem, 0, len(items))
	for _, item := range items {
		req = append(req, service.ReorderItem{
			ID:      item.ID,
			Order:   item.Order,
			DueDate: item.DueDate,
		})
	}
	if err := s.ReorderTasks(ctx, req); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// SetDueDate sets or clears ("" = clear) a task's due date.
func SetDueDate(handle uint64, taskID, dueDate string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	task, err := s.SetDueDate(ctx, taskID, dueDate)
	if err != nil {
		return errorJSON(err)
	}
	return marshal(taskToDTO(task))
}

// SetCompleted toggles completion and returns the projected TaskDTO.
func SetCompleted(handle uint64, taskID string, completed bool) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	task, err := s.SetCompleted(ctx, taskID, completed)
	if err != nil {
		return errorJSON(err)
	}
	return marshal(taskToDTO(task))
}

// ExportEvents returns a JSON array of EventDTO with seq > sinceSeq.
func ExportEvents(handle uint64, sinceSeq int64) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	events, err := s.ExportEvents(ctx, sinceSeq)
	if err != nil {
		return errorJSON(err)
	}
	out := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventToDTO(ev))
	}
	return marshal(out)
}

// ImportEvents accepts a JSON array of EventDTO and merges it.
func ImportEvents(handle uint64, eventsJSON string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	events, err := EventsFromJSON([]byte(eventsJSON))
	if err != nil {
		return errorJSONCode(CodeSerializationError, err.Error())
	}
	if _, err := s.ImportEvents(ctx, events); err != nil {
		return errorJSON(err)
	}
	return okJSON
}

// GetSyncState returns the JSON-encoded sync cursors.
func GetSyncState(handle uint64) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	state, err := s.GetSyncState(ctx)
	if err != nil {
		return errorJSON(err)
	}
	return marshal(syncStateToDTO(state))
}

// DebugDecryptEvent decrypts one base64 payload. Requires Unlocked; the
// given interface carries no separate authorization signal, so embedders
// wanting one must gate this call themselves.
func DebugDecryptEvent(handle uint64, payloadBase64 string) string {
	s, err := session.Lookup(handle)
	if err != nil {
		return errorJSON(err)
	}
	plaintext, err := s.DebugDecryptEvent(payloadBase64)
	if err != nil {
		return errorJSON(err)
	}
	return plaintext
}

func marshal(v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		return errorJSONCode(CodeSerializationError, fmt.Sprintf("encode response: %v", err))
	}
	return string(out)
}
