// Package maintenance exposes the process-wide maintenance flag that puts the
// application in a degraded state while macro-transactions run.
//
// The flag lives in the shared settings table rather than in memory so that
// every worker process observes the same value.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"goggles/internal/logging"
)

// SettingKey is the settings-table key holding the flag.
const SettingKey = "maintenance"

// SettingsStore reads and writes persisted settings.
type SettingsStore interface {
	Setting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Flag reads and toggles the persisted maintenance flag.
type Flag struct {
	store  SettingsStore
	logger *slog.Logger
}

// New constructs a Flag over the settings store.
func New(store SettingsStore, logger *slog.Logger) *Flag {
	return &Flag{store: store, logger: logging.NewComponentLogger(logger, "maintenance")}
}

// Enabled reports the current flag value. A missing setting reads as off.
func (f *Flag) Enabled(ctx context.Context) (bool, error) {
	raw, ok, err := f.store.Setting(ctx, SettingKey)
	if err != nil {
		return false, fmt.Errorf("read maintenance flag: %w", err)
	}
	if !ok {
		return false, nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse maintenance flag %q: %w", raw, err)
	}
	return enabled, nil
}

// Set persists the flag value.
func (f *Flag) Set(ctx context.Context, enabled bool) error {
	if err := f.store.PutSetting(ctx, SettingKey, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("write maintenance flag: %w", err)
	}
	f.logger.Info("maintenance flag changed",
		logging.Bool("enabled", enabled),
		logging.String(logging.FieldEventType, "maintenance_toggled"),
	)
	return nil
}

// Hold turns the flag on unless it already is, and returns a release func that
// turns it off only when this call was the one that turned it on.
//
// Two concurrent holders are not coordinated: the second sees the flag on and
// leaves it alone, and the first clears it when it finishes even if the second
// is still running. Callers rely on a single macro-transaction worker.
func (f *Flag) Hold(ctx context.Context) (release func(context.Context) error, err error) {
	wasOn, err := f.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	if wasOn {
		f.logger.Debug("maintenance already on; leaving it for its owner")
		return func(context.Context) error { return nil }, nil
	}
	if err := f.Set(ctx, true); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return f.Set(ctx, false)
	}, nil
}
