package batchsql_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goggles/internal/batchsql"
	"goggles/internal/config"
	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/services"
	"goggles/internal/testsupport"
)

type env struct {
	cfg      *config.Config
	store    *queue.Store
	runner   *batchsql.Runner
	argsPath string
	pwdPath  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	argsPath := filepath.Join(dir, "args.txt")
	pwdPath := filepath.Join(dir, "pwd.txt")
	body := fmt.Sprintf(`input=$(cat)
printf '%%s\n' "$@" > %q
printf '%%s' "$MYSQL_PWD" > %q
case "$input" in
  *BROKEN*) echo "ERROR 1064 (42000): You have an error in your SQL syntax" >&2; exit 1 ;;
  *WARNONLY*) echo "Warning: something odd" >&2 ;;
esac
echo "1"
exit 0
`, argsPath, pwdPath)

	cfg := testsupport.NewConfig(t, testsupport.WithStubScript("mysql", body))
	store := testsupport.MustOpenStore(t, cfg)
	runner := batchsql.NewRunner(store, batchsql.NewClientExecutor(cfg), cfg.Paths.TempDir, logging.NewNop())
	return env{cfg: cfg, store: store, runner: runner, argsPath: argsPath, pwdPath: pwdPath}
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExecuteSucceedsAndCleansUp(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	row := testsupport.NewBatchRow(t, e.store, "SELECT 1;")

	require.NoError(t, e.runner.Execute(ctx, row))
	assert.True(t, row.Done)

	stored, err := e.store.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, stored.Done, "row must be consumed")
	assert.Empty(t, tempFiles(t, e.cfg.Paths.TempDir), "temp script must be removed")

	args, err := os.ReadFile(e.argsPath)
	require.NoError(t, err)
	for _, want := range []string{"--host=127.0.0.1", "--user=tester", "goggles_test"} {
		assert.Contains(t, string(args), want)
	}
	assert.NotContains(t, string(args), "secret", "password must not appear on the command line")
	pwd, err := os.ReadFile(e.pwdPath)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pwd))
}

func TestExecuteMarksDoneBeforeFailing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	row := testsupport.NewBatchRow(t, e.store, "BROKEN STATEMENT;")

	err := e.runner.Execute(ctx, row)
	require.Error(t, err)

	var execErr *batchsql.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, row.ID, execErr.RowID)
	assert.Contains(t, execErr.Stderr, "ERROR 1064")
	assert.True(t, errors.Is(err, services.ErrExternalTool))

	stored, _ := e.store.GetByID(ctx, row.ID)
	assert.True(t, stored.Done, "done flag is written ahead of execution")
	assert.Empty(t, tempFiles(t, e.cfg.Paths.TempDir))
}

func TestExecuteTreatsStderrAsFailure(t *testing.T) {
	e := newEnv(t)
	row := testsupport.NewBatchRow(t, e.store, "-- WARNONLY\nSELECT 1;")

	err := e.runner.Execute(context.Background(), row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Warning: something odd")
}

type countingExecutor struct{ calls int }

func (c *countingExecutor) Execute(context.Context, string) (string, error) {
	c.calls++
	return "", nil
}

func TestExecuteBlankPayloadIsConsumedWithoutRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	exec := &countingExecutor{}
	runner := batchsql.NewRunner(store, exec, cfg.Paths.TempDir, nil)
	ctx := context.Background()

	blank := testsupport.NewBatchRow(t, store, "   \n")
	require.NoError(t, runner.Execute(ctx, blank))

	noFile, err := store.NewRow(ctx, queue.NewRowParams{BatchSQL: true})
	require.NoError(t, err)
	require.NoError(t, runner.Execute(ctx, noFile))

	assert.Equal(t, 0, exec.calls)
	for _, id := range []int64{blank.ID, noFile.ID} {
		stored, _ := store.GetByID(ctx, id)
		assert.True(t, stored.Done)
	}
}

func TestNewExecutorHonoursConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec, err := batchsql.NewExecutor(cfg)
	require.NoError(t, err)
	_, isClient := exec.(*batchsql.ClientExecutor)
	assert.True(t, isClient)

	cfg.Database.Executor = config.ExecutorDriver
	exec, err = batchsql.NewExecutor(cfg)
	require.NoError(t, err)
	_, isDriver := exec.(*batchsql.DriverExecutor)
	assert.True(t, isDriver)

	cfg.Database.Executor = "odbc"
	_, err = batchsql.NewExecutor(cfg)
	assert.Error(t, err)
}

func TestClientArgsIncludeDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	args := batchsql.NewClientExecutor(cfg).Args()
	assert.Equal(t, "goggles_test", args[len(args)-1])
	assert.True(t, strings.HasPrefix(args[0], "--host="))
}
