package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"goggles/internal/config"
)

// Requirement defines an external dependency goggles relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configured executor needs. The SQL
// client is optional when scripts run in-process through the driver.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "SQL client",
			Command:     cfg.Database.ClientBinary,
			Description: "Runs batch SQL scripts against the primary datastore",
			Optional:    cfg.Database.Executor == config.ExecutorDriver,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if resolved != cmd {
			status.Detail = resolved
		}
		results = append(results, status)
	}
	return results
}
