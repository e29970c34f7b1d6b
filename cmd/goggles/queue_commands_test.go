package main

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"goggles/internal/nested"
	"goggles/internal/testsupport"
)

func TestQueueAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	reqPath := writeFile(t, env.baseDir, "swimmer.yaml", "last_name: Rossi\nfirst_name: Mario\nyear_of_birth: 1971\n")
	out, _, err := runCLI(t, []string{"queue", "add", "--entity", "swimmer", "--request", reqPath}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, out, "Queued row 1 (Swimmer)")

	row, err := env.store.GetByID(ctx, 1)
	if err != nil || row == nil {
		t.Fatalf("lookup row: %v", err)
	}
	if got := row.Request.Sub("swimmer")["last_name"]; got != "Rossi" {
		t.Fatalf("expected request wrapped under root key, got %#v", row.Request)
	}

	jsonPath := writeFile(t, env.baseDir, "badge.json", `{"badge":{"swimmer":{"id":7}}}`)
	if _, _, err := runCLI(t, []string{"queue", "add", "-e", "Badge", "-r", jsonPath, "--parent", "1"}, env.configPath); err != nil {
		t.Fatalf("queue add child: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Swimmer")
	requireContains(t, out, "Badge")

	out, _, err = runCLI(t, []string{"queue", "show", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	var view struct {
		ID          int64      `json:"id"`
		ParentRowID *int64     `json:"parent_row_id"`
		Request     nested.Map `json:"request"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if view.ID != 2 || view.ParentRowID == nil || *view.ParentRowID != 1 {
		t.Fatalf("unexpected show output: %s", out)
	}
	if _, ok := view.Request["badge"]; !ok {
		t.Fatalf("request should keep its root key: %s", out)
	}

	out, _, err = runCLI(t, []string{"queue", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue show parent: %v", err)
	}
	var parentView struct {
		Children []int64 `json:"children"`
	}
	if err := json.Unmarshal([]byte(out), &parentView); err != nil {
		t.Fatalf("decode parent show output: %v", err)
	}
	if len(parentView.Children) != 1 || parentView.Children[0] != 2 {
		t.Fatalf("expected parent to list child 2, got %v", parentView.Children)
	}

	if _, _, err := runCLI(t, []string{"queue", "add", "-e", "Unicorn", "-r", jsonPath}, env.configPath); err == nil {
		t.Fatal("expected unknown entity to fail")
	}
}

func TestQueueStatsRemoveClearDone(t *testing.T) {
	env := setupCLITestEnv(t)

	done := testsupport.NewRow(t, env.store, "Team", nested.Map{"team": nested.Map{"id": 1}}, nil)
	testsupport.MarkDone(t, env.store, done.ID)
	keep := testsupport.NewRow(t, env.store, "Team", nested.Map{"team": nested.Map{"id": 2}}, nil)
	doomed := testsupport.NewRow(t, env.store, "Team", nested.Map{"team": nested.Map{"id": 3}}, nil)

	out, _, err := runCLI(t, []string{"queue", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Batch SQL")

	out, _, err = runCLI(t, []string{"queue", "list", "--done", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --done: %v", err)
	}
	var views []map[string]any
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one done row, got %d", len(views))
	}

	doomedID := strconv.FormatInt(doomed.ID, 10)
	if _, _, err := runCLI(t, []string{"queue", "remove", doomedID}, env.configPath); err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if _, _, err := runCLI(t, []string{"queue", "remove", doomedID}, env.configPath); err == nil {
		t.Fatal("expected second remove to fail")
	}

	out, _, err = runCLI(t, []string{"queue", "clear-done"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear-done: %v", err)
	}
	requireContains(t, out, "Cleared 1 done rows")

	count, err := env.store.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only row %d left, got %d rows", keep.ID, count)
	}
}

func TestQueueAddSQLAndMacroJob(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("mysql", "cat >/dev/null\nexit 0\n"))

	scriptPath := writeFile(t, env.baseDir, "fix.sql", "UPDATE teams SET name = 'CSI' WHERE id = 1;\n")
	out, _, err := runCLI(t, []string{"queue", "add-sql", "--file", scriptPath}, env.configPath)
	if err != nil {
		t.Fatalf("queue add-sql: %v", err)
	}
	requireContains(t, out, "Queued batch SQL row 1")

	out, _, err = runCLI(t, []string{"jobs", "run", "sql"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs run sql: %v", err)
	}
	requireContains(t, out, "import_queue completed")

	row, err := env.store.GetByID(context.Background(), 1)
	if err != nil || row == nil {
		t.Fatalf("lookup: %v", err)
	}
	if !row.Done {
		t.Fatal("batch row should be done after the macro batch")
	}

	out, _, err = runCLI(t, []string{"maintenance", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("maintenance status: %v", err)
	}
	requireContains(t, out, "Maintenance: off")
}

func TestJobsRunRejectsUnknownMode(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"jobs", "run", "turbo"}, env.configPath); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}
