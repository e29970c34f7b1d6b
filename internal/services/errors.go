package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes job context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, job, operation, message string, err error) error {
	detail := buildDetail(job, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a failed job attempt is worth repeating. Bad input
// and bad configuration fail the same way every time.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

// Hint returns a short operator-facing suggestion for the error category.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "check goggles config and database credentials"
	case errors.Is(err, ErrValidation):
		return "inspect the offending queue row with 'goggles queue show'"
	case errors.Is(err, ErrExternalTool):
		return "run 'goggles doctor' and inspect the SQL client output"
	case errors.Is(err, ErrTimeout):
		return "raise jobs.max_run_time or split the batch"
	case errors.Is(err, ErrNotFound):
		return "the referenced record no longer exists"
	default:
		return "check logs for details"
	}
}

// ErrorDetails summarizes an error for structured logs.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

// Details classifies err by its marker so log lines carry a stable kind and
// an operator hint next to the raw message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	kind := "unknown"
	for _, marker := range []error{ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout, ErrExternalTool, ErrTransient} {
		if errors.Is(err, marker) {
			kind = marker.Error()
			break
		}
	}
	return ErrorDetails{Kind: kind, Message: err.Error(), Hint: Hint(err)}
}

func buildDetail(job, operation, message string) string {
	parts := make([]string, 0, 3)
	if job = strings.TrimSpace(job); job != "" {
		parts = append(parts, job)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
