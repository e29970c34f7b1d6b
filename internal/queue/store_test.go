package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"goggles/internal/nested"
	"goggles/internal/queue"
	"goggles/internal/testsupport"
)

func TestOpenPathRefusesForeignSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "queue.db")
	store, err := queue.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	store.Close()

	reopened, err := queue.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("reopen stamped database: %v", err)
	}
	reopened.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("restamp: %v", err)
	}
	db.Close()

	if _, err := queue.OpenPath(dbPath); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestNewRowRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	row := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{"id": 42}}, nil)
	if row.ID == 0 {
		t.Fatal("expected row ID to be assigned")
	}
	if row.Done || row.ProcessRuns != 0 || row.HasParent() || row.BatchSQL {
		t.Fatalf("unexpected initial state: %#v", row)
	}
	if len(row.SolvedData) != 0 {
		t.Fatalf("expected empty solved data, got %v", row.SolvedData)
	}

	fetched, err := store.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	id, ok := nested.Int64(fetched.Request.Sub("swimmer")["id"])
	if !ok || id != 42 {
		t.Fatalf("unexpected request payload: %v", fetched.Request)
	}

	missing, err := store.GetByID(ctx, row.ID+100)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing row, got %v %v", missing, err)
	}
}

func TestNewRowRequiresEntity(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.NewRow(context.Background(), queue.NewRowParams{Request: nested.Map{"a": 1}})
	if !errors.Is(err, queue.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
}

func TestUpdatePersistsAndNeverClearsDone(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	row := testsupport.NewRow(t, store, "Team", nested.Map{"team": map[string]any{"name": "Sharks"}}, nil)

	row.Done = true
	row.ProcessRuns = 2
	row.SolvedData = nested.Map{"team": map[string]any{"id": 7}}
	if err := store.Update(ctx, row); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	row.Done = false
	if err := store.Update(ctx, row); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	fetched, err := store.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !fetched.Done {
		t.Fatal("done flag must not revert to false")
	}
	if fetched.ProcessRuns != 2 {
		t.Fatalf("unexpected process runs: %d", fetched.ProcessRuns)
	}
}

func TestUpdateRejectsMissingOrUnsavedRows(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Update(ctx, &queue.Row{TargetEntity: "Swimmer"}); !errors.Is(err, queue.ErrNotPersisted) {
		t.Fatalf("expected ErrNotPersisted, got %v", err)
	}
	if err := store.Update(ctx, &queue.Row{ID: 999, TargetEntity: "Swimmer"}); !errors.Is(err, queue.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
	row := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	row.TargetEntity = " "
	if err := store.Update(ctx, row); !errors.Is(err, queue.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
}

func TestSiblingsOrderedByCreation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := base
	store.SetClock(func() time.Time { return tick })

	parent := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	tick = base.Add(time.Minute)
	older := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{"v": 1}}, testsupport.Ptr(parent.ID))
	tick = base.Add(2 * time.Minute)
	newer := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{"v": 2}}, testsupport.Ptr(parent.ID))

	siblings, err := store.SiblingsOf(ctx, parent.ID)
	if err != nil {
		t.Fatalf("SiblingsOf failed: %v", err)
	}
	if len(siblings) != 2 || siblings[0].ID != older.ID || siblings[1].ID != newer.ID {
		t.Fatalf("unexpected sibling order: %#v", siblings)
	}
	last, err := store.LastSibling(ctx, parent.ID)
	if err != nil {
		t.Fatalf("LastSibling failed: %v", err)
	}
	if last == nil || last.ID != newer.ID {
		t.Fatalf("expected newest sibling, got %#v", last)
	}
	none, err := store.LastSibling(ctx, newer.ID)
	if err != nil || none != nil {
		t.Fatalf("expected no siblings for leaf, got %#v %v", none, err)
	}
}

func TestLastSiblingSkipsBatchChildren(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	parent := testsupport.NewRow(t, store, "Meeting", nested.Map{"meeting": map[string]any{"code": "csi"}}, nil)
	child := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{"v": 1}}, testsupport.Ptr(parent.ID))
	if _, err := store.NewRow(ctx, queue.NewRowParams{BatchSQL: true, ParentRowID: testsupport.Ptr(parent.ID)}); err != nil {
		t.Fatalf("NewRow batch child: %v", err)
	}

	last, err := store.LastSibling(ctx, parent.ID)
	if err != nil {
		t.Fatalf("LastSibling failed: %v", err)
	}
	if last == nil || last.ID != child.ID {
		t.Fatalf("expected solver child %d as tail, got %#v", child.ID, last)
	}
	siblings, err := store.SiblingsOf(ctx, parent.ID)
	if err != nil {
		t.Fatalf("SiblingsOf failed: %v", err)
	}
	if len(siblings) != 2 {
		t.Fatalf("expected SiblingsOf to list every child, got %d", len(siblings))
	}
}

func TestIncrementRunsTouchesOnlyCounter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	row := testsupport.NewRow(t, store, "Lap", nested.Map{"lap": map[string]any{"length": 50}}, nil)

	if err := store.IncrementRuns(ctx, row.ID); err != nil {
		t.Fatalf("IncrementRuns failed: %v", err)
	}
	if err := store.IncrementRuns(ctx, row.ID); err != nil {
		t.Fatalf("IncrementRuns failed: %v", err)
	}
	fetched, _ := store.GetByID(ctx, row.ID)
	if fetched.ProcessRuns != 2 || fetched.Done || len(fetched.SolvedData) != 0 {
		t.Fatalf("unexpected row after increments: %#v", fetched)
	}
	if err := store.IncrementRuns(ctx, 12345); !errors.Is(err, queue.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

func TestDeleteDoneRemovesRowsAndAttachments(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pending := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	done1 := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	batch := testsupport.NewBatchRow(t, store, "SELECT 1;")
	testsupport.MarkDone(t, store, done1.ID)
	testsupport.MarkDone(t, store, batch.ID)

	deleted, err := store.DeleteDone(ctx)
	if err != nil {
		t.Fatalf("DeleteDone failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", deleted)
	}
	count, _ := store.Count(ctx)
	if count != 1 {
		t.Fatalf("expected 1 remaining row, got %d", count)
	}
	if still, _ := store.GetByID(ctx, pending.ID); still == nil {
		t.Fatal("pending row should remain")
	}
	att, err := store.Attachment(ctx, batch.ID)
	if err != nil || att != nil {
		t.Fatalf("expected attachment to be purged, got %#v %v", att, err)
	}
}

func TestBatchRowsAndAttachments(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	has, err := store.HasBatchSQL(ctx)
	if err != nil || has {
		t.Fatalf("expected no batch rows, got %v %v", has, err)
	}

	batch := testsupport.NewBatchRow(t, store, "UPDATE swimmers SET year_of_birth = 1990;")
	if batch.TargetEntity != queue.BatchSQLEntity || !batch.BatchSQL {
		t.Fatalf("unexpected batch row: %#v", batch)
	}
	att, err := store.Attachment(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Attachment failed: %v", err)
	}
	if att == nil || att.Filename != "batch.sql" || att.SizeBytes != int64(len(att.Content)) {
		t.Fatalf("unexpected attachment: %#v", att)
	}

	has, _ = store.HasBatchSQL(ctx)
	if !has {
		t.Fatal("expected batch row to be detected")
	}

	if err := store.Attach(ctx, batch.ID, "../../replaced.sql", []byte("SELECT 2;")); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	att, _ = store.Attachment(ctx, batch.ID)
	if att.Filename != "replaced.sql" || string(att.Content) != "SELECT 2;" {
		t.Fatalf("expected replaced attachment, got %#v", att)
	}

	solver := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	if err := store.Attach(ctx, solver.ID, "x.sql", []byte("x")); !errors.Is(err, queue.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow for solver row, got %v", err)
	}

	purged, err := store.PurgeAttachment(ctx, batch.ID)
	if err != nil || !purged {
		t.Fatalf("expected purge, got %v %v", purged, err)
	}

	testsupport.MarkDone(t, store, batch.ID)
	has, _ = store.HasBatchSQL(ctx)
	if has {
		t.Fatal("consumed batch row must not select macro mode")
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	parent := testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, nil)
	testsupport.NewRow(t, store, "Swimmer", nested.Map{"swimmer": map[string]any{}}, testsupport.Ptr(parent.ID))
	batch := testsupport.NewBatchRow(t, store, "SELECT 1;")
	testsupport.MarkDone(t, store, batch.ID)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := queue.Stats{Total: 3, Done: 1, Pending: 2, BatchSQL: 1, Children: 1}
	if stats != want {
		t.Fatalf("unexpected stats: got %+v want %+v", stats, want)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseReadable || !health.IntegrityCheck || len(health.MissingTables) != 0 || health.TotalRows != 3 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestSettingsUpsert(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, ok, err := store.Setting(ctx, "maintenance"); err != nil || ok {
		t.Fatalf("expected missing setting, got %v %v", ok, err)
	}
	if err := store.PutSetting(ctx, "maintenance", "true"); err != nil {
		t.Fatalf("PutSetting failed: %v", err)
	}
	if err := store.PutSetting(ctx, "maintenance", "false"); err != nil {
		t.Fatalf("PutSetting failed: %v", err)
	}
	value, ok, err := store.Setting(ctx, "maintenance")
	if err != nil || !ok || value != "false" {
		t.Fatalf("unexpected setting: %q %v %v", value, ok, err)
	}
}

func TestDeleteObsoleteIssues(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	store.SetClock(func() time.Time { return clock })

	oldSolved, _ := store.NewIssue(ctx, "0", "old solved")
	_ = store.UpdateIssueStatus(ctx, oldSolved.ID, queue.IssueSolved)
	oldPaused, _ := store.NewIssue(ctx, "1a", "old paused")
	_ = store.UpdateIssueStatus(ctx, oldPaused.ID, queue.IssuePaused)

	clock = now.Add(-time.Hour)
	recentRejected, _ := store.NewIssue(ctx, "2b", "recent rejected")
	_ = store.UpdateIssueStatus(ctx, recentRejected.ID, queue.IssueRejected)

	deleted, err := store.DeleteObsoleteIssues(ctx, queue.MaxProcessableIssueStatus, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteObsoleteIssues failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted issue, got %d", deleted)
	}
	issues, _ := store.ListIssues(ctx)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues to remain, got %d", len(issues))
	}
	for _, issue := range issues {
		if issue.ID == oldSolved.ID {
			t.Fatal("old solved issue should be gone")
		}
	}
}

func TestParseIssueStatus(t *testing.T) {
	cases := map[string]queue.IssueStatus{"new": queue.IssueNew, "Solved": queue.IssueSolved, "5": queue.IssueRejected}
	for input, want := range cases {
		got, err := queue.ParseIssueStatus(input)
		if err != nil || got != want {
			t.Fatalf("ParseIssueStatus(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := queue.ParseIssueStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if queue.IssuePaused.Deletable() || !queue.IssueSolved.Deletable() {
		t.Fatal("unexpected deletable classification")
	}
}
