package batchsql

import (
	"fmt"
	"strings"

	"goggles/internal/services"
)

// ExecutionError reports a failed batch script. The row it came from is
// already marked done.
type ExecutionError struct {
	RowID  int64
	Stderr string
	Err    error
}

func (e *ExecutionError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		detail = "unknown failure"
	}
	return fmt.Sprintf("batch sql row %d failed: %s", e.RowID, detail)
}

// Unwrap exposes the external-tool marker and the underlying error.
func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}
