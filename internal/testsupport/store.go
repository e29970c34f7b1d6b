package testsupport

import (
	"context"
	"testing"

	"goggles/internal/config"
	"goggles/internal/nested"
	"goggles/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRow enqueues a solver row for tests.
func NewRow(t testing.TB, store *queue.Store, entity string, request nested.Map, parent *int64) *queue.Row {
	t.Helper()

	row, err := store.NewRow(context.Background(), queue.NewRowParams{
		TargetEntity: entity,
		Request:      request,
		ParentRowID:  parent,
	})
	if err != nil {
		t.Fatalf("store.NewRow: %v", err)
	}
	return row
}

// NewBatchRow enqueues a macro-transaction row carrying script.
func NewBatchRow(t testing.TB, store *queue.Store, script string) *queue.Row {
	t.Helper()

	row, err := store.NewRow(context.Background(), queue.NewRowParams{
		BatchSQL:   true,
		Script:     []byte(script),
		ScriptName: "batch.sql",
	})
	if err != nil {
		t.Fatalf("store.NewRow batch: %v", err)
	}
	return row
}

// MarkDone flags a row as done for tests.
func MarkDone(t testing.TB, store *queue.Store, id int64) {
	t.Helper()

	if err := store.MarkDone(context.Background(), id); err != nil {
		t.Fatalf("store.MarkDone: %v", err)
	}
}

// Ptr returns a pointer to id, for parent references.
func Ptr(id int64) *int64 {
	return &id
}
