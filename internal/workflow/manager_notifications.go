package workflow

import (
	"context"

	"goggles/internal/logging"
	"goggles/internal/notifications"
)

func (m *Manager) notifyJobFailure(ctx context.Context, lane *laneState, attempts int, jobErr error) {
	if m.notifier == nil || jobErr == nil {
		return
	}
	logger := logging.WithContext(ctx, lane.logger)
	if err := m.notifier.Publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"job":      lane.name,
		"attempts": attempts,
		"error":    jobErr,
	}); err != nil {
		logger.Warn("job failure notification failed; alert only in logs",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
	}
}
