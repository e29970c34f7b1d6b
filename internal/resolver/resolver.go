// Package resolver runs one solver pass over one import-queue row.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"goggles/internal/logging"
	"goggles/internal/nested"
	"goggles/internal/queue"
	"goggles/internal/services"
	"goggles/internal/solver"
)

// ErrPersist marks a failure to write the resolved row back to the store.
var ErrPersist = errors.New("persist queue row")

// Skip reasons reported in Result.SkipReason.
const (
	SkipNotPersisted = "row not persisted"
	SkipDone         = "row already done"
	SkipBlankRequest = "blank request"
	SkipBatchSQL     = "batch sql row"
)

// RowStore persists resolved rows.
type RowStore interface {
	Update(ctx context.Context, row *queue.Row) error
}

// Dispatcher hands out solvers per entity tag.
type Dispatcher interface {
	SolverFor(tag string, request nested.Map) (solver.Solver, error)
	RootKey(tag string) (string, error)
}

// Result describes the outcome of Resolve. A skipped result means nothing was
// touched; otherwise Row holds the persisted state after the pass.
type Result struct {
	Row        *queue.Row
	Skipped    bool
	SkipReason string
	// Solved mirrors the solver's verdict; false is a partial resolution, not an error.
	Solved bool
}

// Resolver dispatches rows to solvers and persists the outcome.
type Resolver struct {
	store      RowStore
	dispatcher Dispatcher
	logger     *slog.Logger
}

// New constructs a Resolver.
func New(store RowStore, dispatcher Dispatcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:      store,
		dispatcher: dispatcher,
		logger:     logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve runs one solver pass over row and persists it. Unsaved, done and
// batch SQL rows are skipped untouched. Otherwise the row is mutated
// in place: Done takes the solver's verdict, ProcessRuns grows by one and
// SolvedData becomes the right-biased merge of the old solved data, the old
// request, and the request's root-key block overlaid with new bindings.
func (r *Resolver) Resolve(ctx context.Context, row *queue.Row) (Result, error) {
	switch {
	case !row.IsPersisted():
		return Result{Row: row, Skipped: true, SkipReason: SkipNotPersisted}, nil
	case row.Done:
		return Result{Row: row, Skipped: true, SkipReason: SkipDone, Solved: true}, nil
	case row.BatchSQL:
		// Batch rows belong to the batch SQL runner.
		return Result{Row: row, Skipped: true, SkipReason: SkipBatchSQL}, nil
	}

	ctx = services.WithRowID(ctx, row.ID)
	logger := logging.WithContext(ctx, r.logger)

	latest := row.LatestRequest()
	if nested.IsBlank(latest) {
		logger.Debug("row skipped", logging.String("reason", SkipBlankRequest))
		return Result{Row: row, Skipped: true, SkipReason: SkipBlankRequest}, nil
	}

	rootKey, err := r.dispatcher.RootKey(row.TargetEntity)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "resolver", "dispatch", row.TargetEntity, err)
	}
	s, err := r.dispatcher.SolverFor(row.TargetEntity, latest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "resolver", "dispatch", row.TargetEntity, err)
	}
	if err := s.Solve(ctx); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "resolver", "solve", fmt.Sprintf("%s row %d", row.TargetEntity, row.ID), err)
	}

	previousSolved := row.SolvedData
	previousRequest := row.Request
	rootBlock := nested.DeepMerge(previousRequest.Sub(rootKey), s.Bindings())

	row.Done = s.Solved()
	row.ProcessRuns++
	row.SolvedData = nested.DeepMerge(previousSolved, previousRequest, nested.Map{rootKey: rootBlock})

	if err := r.store.Update(ctx, row); err != nil {
		return Result{}, fmt.Errorf("%w: row %d: %w", ErrPersist, row.ID, err)
	}

	logger.Info("row resolved",
		logging.String("entity", row.TargetEntity),
		logging.Bool("done", row.Done),
		logging.Int("process_runs", row.ProcessRuns),
		logging.String(logging.FieldEventType, "row_resolved"),
	)
	return Result{Row: row, Solved: row.Done}, nil
}
