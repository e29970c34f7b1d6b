package daemonrun_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goggles/internal/daemonrun"
	"goggles/internal/logging"
	"goggles/internal/testsupport"
)

func TestAssembledImportQueueRunsBatchThroughClient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubScript("mysql", `cat > "$(dirname "$0")/received.sql"
exit 0
`))
	store := testsupport.MustOpenStore(t, cfg)
	rt, err := daemonrun.Assemble(cfg, store, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	row := testsupport.NewBatchRow(t, store, "UPDATE swimmers SET year_of_birth = 1990 WHERE id = 42;")
	jobsSet := rt.JobSet()
	require.NotNil(t, jobsSet.ImportQueue)
	require.NotNil(t, jobsSet.IssueCleanup)

	ctx := context.Background()
	require.NoError(t, jobsSet.ImportQueue(ctx))

	received, err := os.ReadFile(filepath.Join(testsupport.BaseDir(cfg), "bin", "received.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(received), "year_of_birth = 1990")

	stored, err := store.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, stored.Done)

	on, err := rt.Maintenance.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, jobsSet.IssueCleanup(ctx))
}

func TestAssembleRejectsUnknownExecutor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Database.Executor = "carrier-pigeon"
	store := testsupport.MustOpenStore(t, cfg)

	_, err := daemonrun.Assemble(cfg, store, logging.NewNop())
	assert.Error(t, err)
}

func TestAssembledImportQueueNotifiesBatchFailure(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		bodies = append(bodies, string(body))
		mu.Unlock()
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithStubScript("mysql", `cat >/dev/null
echo "ERROR 1146 (42S02): Table 'goggles_test.nope' doesn't exist" >&2
exit 1
`))
	cfg.Notifications.NtfyTopic = server.URL
	store := testsupport.MustOpenStore(t, cfg)
	rt, err := daemonrun.Assemble(cfg, store, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	row := testsupport.NewBatchRow(t, store, "DELETE FROM nope;")
	require.Error(t, rt.JobSet().ImportQueue(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, titles, 1)
	assert.Equal(t, "goggles - Batch SQL Failed", titles[0])
	assert.Contains(t, bodies[0], "42S02")
	assert.Contains(t, bodies[0], strconv.FormatInt(row.ID, 10))
}
