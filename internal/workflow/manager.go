package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"goggles/internal/config"
	"goggles/internal/logging"
	"goggles/internal/notifications"
	"goggles/internal/queue"
)

// StatsSource exposes queue counters for Status.
type StatsSource interface {
	Stats(ctx context.Context) (queue.Stats, error)
}

// Manager coordinates the background job lanes.
type Manager struct {
	logger      *slog.Logger
	stats       StatsSource
	notifier    notifications.Service
	maxAttempts int
	maxRunTime  time.Duration
	backoff     time.Duration

	importInterval  time.Duration
	cleanupInterval time.Duration

	lanes     map[string]*laneState
	laneOrder []string

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager from the jobs configuration.
// Permanent failures go to the ntfy notifier built from cfg. stats may be nil.
func NewManager(cfg *config.Config, stats StatsSource, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, stats, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier.
func NewManagerWithNotifier(cfg *config.Config, stats StatsSource, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Manager{
		logger:          logger,
		stats:           stats,
		notifier:        notifier,
		maxAttempts:     cfg.Jobs.MaxAttempts,
		maxRunTime:      cfg.MaxRunTime(),
		backoff:         cfg.RetryBackoff(),
		importInterval:  cfg.ImportQueueInterval(),
		cleanupInterval: cfg.IssueCleanupInterval(),
		lanes:           make(map[string]*laneState),
	}
}
