package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"goggles/internal/logging"
	"goggles/internal/services"
)

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	return m.logger.With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-%s-runner", lane.name)),
		logging.String(logging.FieldQueue, lane.queue),
	)
}

func withRunContext(ctx context.Context, lane *laneState, runID string) context.Context {
	ctx = services.WithJob(ctx, lane.name)
	ctx = services.WithQueue(ctx, lane.queue)
	if runID != "" {
		ctx = services.WithRunID(ctx, runID)
	}
	return ctx
}
