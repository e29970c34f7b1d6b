package workflow

import (
	"context"
	"strings"

	"goggles/internal/logging"
	"goggles/internal/services"
)

func (m *Manager) handleJobFailure(ctx context.Context, lane *laneState, attempts int, jobErr error) {
	m.setLastError(jobErr)

	details := services.Details(jobErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(jobErr.Error())
	}
	logging.WithContext(ctx, lane.logger).Error("job failed",
		logging.String("error_message", message),
		logging.String("error_kind", details.Kind),
		logging.Int("attempts", attempts),
		logging.Bool("retryable", services.Retryable(jobErr)),
		logging.Error(jobErr),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.String(logging.FieldEventType, "job_failure"),
		logging.Alert("job_failure"),
	)
	m.notifyJobFailure(ctx, lane, attempts, jobErr)
}
