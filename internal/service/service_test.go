package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/projector"
	"github.com/quiltdb/quilt/internal/storage/sqlite"
	"github.com/quiltdb/quilt/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:", "device-a")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	keys := crypto.NewManager()
	if _, err := keys.Init("passphrase"); err != nil {
		t.Fatalf("init keys: %v", err)
	}
	return New(store, keys, projector.NewView())
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, CreateRequest{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" {
		t.Fatal("no id assigned")
	}
	if task.Status != types.StatusOpen {
		t.Fatalf("status = %s, want open", task.Status)
	}
	if task.Priority != types.PriorityNormal {
		t.Fatalf("priority = %s, want normal", task.Priority)
	}
	if task.Order <= 0 {
		t.Fatalf("order = %d, want > 0", task.Order)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
	if task.CompletedAt != nil {
		t.Fatalf("completed_at = %v, want nil", task.CompletedAt)
	}
}

func TestCreateOrderAppendsWithinDueGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.Create(ctx, CreateRequest{Title: "a", DueDate: "2025-06-10"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, CreateRequest{Title: "b", DueDate: "2025-06-10"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.Order <= first.Order {
		t.Fatalf("orders %d then %d, want strictly increasing within group", first.Order, second.Order)
	}

	// A different due group starts its own ranking.
	other, err := svc.Create(ctx, CreateRequest{Title: "c", DueDate: "2025-07-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if other.Order != 1 {
		t.Fatalf("first order in new group = %d, want 1", other.Order)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing title", CreateRequest{}},
		{"bad priority", CreateRequest{Title: "x", Priority: "urgent"}},
		{"bad due date", CreateRequest{Title: "x", DueDate: "June 10th"}},
		{"due date with time", CreateRequest{Title: "x", DueDate: "2025-06-10T12:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Create = %v, want ErrInvalidInput", err)
			}
		})
	}
	if len(svc.List(types.TaskFilter{})) != 0 {
		t.Fatal("rejected creates left tasks behind")
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, CreateRequest{Title: "original", Description: "keep me"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "renamed"
	got, err := svc.Update(ctx, UpdateRequest{ID: task.ID, Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "renamed" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Description != "keep me" {
		t.Fatalf("untouched description changed: %q", got.Description)
	}

	empty := ""
	if _, err := svc.Update(ctx, UpdateRequest{ID: task.ID, Title: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty title update = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(ctx, UpdateRequest{ID: "nope", Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id update = %v, want ErrNotFound", err)
	}
}

func TestDeleteTombstones(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, CreateRequest{Title: "doomed"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	// Deleted means gone for every later mutation too.
	if err := svc.Delete(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := svc.SetCompleted(ctx, task.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete after delete = %v, want ErrNotFound", err)
	}
}

func TestSetCompletedToggle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, CreateRequest{Title: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done, err := svc.SetCompleted(ctx, task.ID, true)
	if err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if done.Status != types.StatusDone {
		t.Fatalf("status = %s, want done", done.Status)
	}
	if done.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	reopened, err := svc.SetCompleted(ctx, task.ID, false)
	if err != nil {
		t.Fatalf("SetCompleted(false): %v", err)
	}
	if reopened.Status != types.StatusOpen {
		t.Fatalf("status after reopen = %s, want open", reopened.Status)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("completed_at after reopen = %v, want nil", reopened.CompletedAt)
	}
}

func TestSetDueDate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, CreateRequest{Title: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.SetDueDate(ctx, task.ID, "2025-12-24")
	if err != nil {
		t.Fatalf("SetDueDate: %v", err)
	}
	if got.DueDate != "2025-12-24" {
		t.Fatalf("due date = %q", got.DueDate)
	}

	cleared, err := svc.SetDueDate(ctx, task.ID, "")
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != "" {
		t.Fatalf("due date after clear = %q", cleared.DueDate)
	}

	if _, err := svc.SetDueDate(ctx, task.ID, "24/12/2025"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad date = %v, want ErrInvalidInput", err)
	}
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, _ := svc.Create(ctx, CreateRequest{Title: "a"})
	b, _ := svc.Create(ctx, CreateRequest{Title: "b"})

	if err := svc.Reorder(ctx, []ReorderItem{
		{ID: a.ID, Order: 2},
		{ID: b.ID, Order: 1},
	}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	tasks := svc.List(types.TaskFilter{})
	if tasks[0].ID != b.ID || tasks[1].ID != a.ID {
		t.Fatalf("order after reorder: %s then %s", tasks[0].Title, tasks[1].Title)
	}

	// One bad item rejects the whole request before any event is emitted.
	before := svc.List(types.TaskFilter{})
	err := svc.Reorder(ctx, []ReorderItem{
		{ID: a.ID, Order: 9},
		{ID: "missing", Order: 1},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reorder with unknown id = %v, want ErrNotFound", err)
	}
	after := svc.List(types.TaskFilter{})
	for i := range before {
		if before[i].Order != after[i].Order {
			t.Fatal("partial reorder applied")
		}
	}

	if err := svc.Reorder(ctx, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty reorder = %v, want ErrInvalidInput", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	open, _ := svc.Create(ctx, CreateRequest{Title: "open one"})
	done, _ := svc.Create(ctx, CreateRequest{Title: "done one"})
	if _, err := svc.SetCompleted(ctx, done.ID, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}

	got := svc.List(types.TaskFilter{Status: types.StatusOpen})
	if len(got) != 1 || got[0].ID != open.ID {
		t.Fatalf("open filter = %+v", got)
	}
	got = svc.List(types.TaskFilter{Status: types.StatusDone})
	if len(got) != 1 || got[0].ID != done.ID {
		t.Fatalf("done filter = %+v", got)
	}
	if len(svc.List(types.TaskFilter{})) != 2 {
		t.Fatal("unfiltered list incomplete")
	}
}

func TestMutationsRequireUnlockedKeys(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(ctx, ":memory:", "device-a")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	keys := crypto.NewManager()
	if _, err := keys.Init("passphrase"); err != nil {
		t.Fatalf("init keys: %v", err)
	}
	keys.Lock()

	svc := New(store, keys, projector.NewView())
	if _, err := svc.Create(ctx, CreateRequest{Title: "x"}); !errors.Is(err, crypto.ErrNotUnlocked) {
		t.Fatalf("Create while locked = %v, want ErrNotUnlocked", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("locked create reached the log")
	}
}
