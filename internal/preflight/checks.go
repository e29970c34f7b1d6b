package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"goggles/internal/config"
	"goggles/internal/deps"
	"goggles/internal/primarydb"
	"goggles/internal/queue"
)

// HealthChecker reports queue database diagnostics.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (queue.DatabaseHealth, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckQueueDatabase verifies schema and integrity of the queue database.
func CheckQueueDatabase(ctx context.Context, checker HealthChecker) Result {
	const name = "Queue database"
	if checker == nil {
		return Result{Name: name, Detail: "not opened"}
	}
	health, err := checker.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", health.DBPath, err)}
	}
	if len(health.MissingTables) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing tables: %v)", health.DBPath, health.MissingTables)}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: fmt.Sprintf("%s (integrity check failed)", health.DBPath)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d, %d rows)", health.DBPath, health.SchemaVersion, health.TotalRows)}
}

// CheckPrimaryDatabase verifies the primary datastore accepts connections.
// It uses a 5-second timeout and a single attempt.
func CheckPrimaryDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Primary database"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := primarydb.Open(checkCtx, cfg, primarydb.Options{})
	if err != nil {
		return Result{Name: name, Detail: summarizeConnectError(err)}
	}
	_ = db.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s@%s:%d reachable", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)}
}

// CheckSystemDeps evaluates the external binaries the configured executor needs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

func summarizeConnectError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connection timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connection timed out"
	}
	return err.Error()
}
