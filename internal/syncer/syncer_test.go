package syncer

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/projector"
	"github.com/quiltdb/quilt/internal/storage/sqlite"
	"github.com/quiltdb/quilt/internal/types"
)

// newReplica opens an in-memory store plus a key manager sharing the key
// state of prev (or freshly initialized when prev is nil).
func newReplica(t *testing.T, deviceID string, prev *crypto.Manager, ks *types.KeyState) (*sqlite.Store, *crypto.Manager) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:", deviceID)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	keys := crypto.NewManager()
	if prev == nil {
		state, err := keys.Init("shared passphrase")
		if err != nil {
			t.Fatalf("init keys: %v", err)
		}
		*ks = state
	} else {
		keys.Load(*ks)
		if err := keys.Unlock("shared passphrase"); err != nil {
			t.Fatalf("unlock: %v", err)
		}
	}
	return store, keys
}

func appendChange(t *testing.T, store *sqlite.Store, keys *crypto.Manager, typ types.EventType, change types.Change) types.Event {
	t.Helper()
	plaintext, err := json.Marshal(change)
	if err != nil {
		t.Fatalf("marshal change: %v", err)
	}
	payload, err := keys.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ev, err := store.AppendLocal(context.Background(), types.Event{
		TS:      time.Now().UTC(),
		Type:    typ,
		Payload: payload,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return ev
}

func TestExportAdvancesWatermark(t *testing.T) {
	ctx := context.Background()
	var ks types.KeyState
	store, keys := newReplica(t, "device-a", nil, &ks)
	engine := New(store)

	title := "one"
	for i := 0; i < 3; i++ {
		appendChange(t, store, keys, types.EventCreated, types.Change{TaskID: "t1", Title: &title})
	}

	events, err := engine.Export(ctx, 0)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("exported %d events, want 3", len(events))
	}
	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.LastExported != 3 {
		t.Fatalf("watermark = %d, want 3", state.LastExported)
	}

	// Nothing new above the watermark; the watermark stays put.
	events, err = engine.Export(ctx, 3)
	if err != nil {
		t.Fatalf("Export past end: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("exported %d events past end, want 0", len(events))
	}
	state, _ = engine.State(ctx)
	if state.LastExported != 3 {
		t.Fatalf("watermark moved to %d on empty export", state.LastExported)
	}
}

func TestImportRefreshesProjection(t *testing.T) {
	ctx := context.Background()
	var ks types.KeyState
	storeA, keysA := newReplica(t, "device-a", nil, &ks)
	storeB, keysB := newReplica(t, "device-b", keysA, &ks)

	title := "made on A"
	appendChange(t, storeA, keysA, types.EventCreated, types.Change{TaskID: "t1", Title: &title})

	batch, err := New(storeA).Export(ctx, 0)
	if err != nil {
		t.Fatalf("export from A: %v", err)
	}

	view := projector.NewView()
	engineB := New(storeB)
	accepted, err := engineB.Import(ctx, batch, keysB, view)
	if err != nil {
		t.Fatalf("import into B: %v", err)
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want 1", accepted)
	}
	task, ok := view.Projection().Get("t1")
	if !ok {
		t.Fatal("imported task missing from projection")
	}
	if task.Title != "made on A" {
		t.Fatalf("title = %q", task.Title)
	}

	// Replay: accepted 0, projection untouched.
	accepted, err = engineB.Import(ctx, batch, keysB, view)
	if err != nil {
		t.Fatalf("replay import: %v", err)
	}
	if accepted != 0 {
		t.Fatalf("replay accepted = %d, want 0", accepted)
	}
	if view.Projection().Len() != 1 {
		t.Fatalf("projection has %d tasks after replay, want 1", view.Projection().Len())
	}

	state, err := engineB.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Remotes["device-a"] != 1 {
		t.Fatalf("remote cursor = %v", state.Remotes)
	}
}

func TestTwoReplicaConvergence(t *testing.T) {
	ctx := context.Background()
	var ks types.KeyState
	storeA, keysA := newReplica(t, "device-a", nil, &ks)
	storeB, keysB := newReplica(t, "device-b", keysA, &ks)

	titleA, titleB := "from A", "from B"
	appendChange(t, storeA, keysA, types.EventCreated, types.Change{TaskID: "ta", Title: &titleA})
	appendChange(t, storeB, keysB, types.EventCreated, types.Change{TaskID: "tb", Title: &titleB})

	engineA, engineB := New(storeA), New(storeB)

	fromA, err := engineA.Export(ctx, 0)
	if err != nil {
		t.Fatalf("export A: %v", err)
	}
	fromB, err := engineB.Export(ctx, 0)
	if err != nil {
		t.Fatalf("export B: %v", err)
	}

	viewA, viewB := projector.NewView(), projector.NewView()
	if _, err := engineA.Import(ctx, fromB, keysA, viewA); err != nil {
		t.Fatalf("import into A: %v", err)
	}
	if _, err := engineB.Import(ctx, fromA, keysB, viewB); err != nil {
		t.Fatalf("import into B: %v", err)
	}

	// Both replicas rebuilt from their merged logs must agree exactly.
	eventsA, err := storeA.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list A: %v", err)
	}
	if err := viewA.Rebuild(keysA, eventsA); err != nil {
		t.Fatalf("rebuild A: %v", err)
	}

	listA := viewA.Projection().List(types.TaskFilter{})
	listB := viewB.Projection().List(types.TaskFilter{})
	if len(listA) != 2 || len(listB) != 2 {
		t.Fatalf("task counts: A=%d B=%d, want 2 each", len(listA), len(listB))
	}
	if !reflect.DeepEqual(listA, listB) {
		t.Fatalf("replicas diverged:\nA: %+v\nB: %+v", listA, listB)
	}
}
