package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"goggles/internal/nested"
)

// NewRow enqueues a row. Batch rows may carry a script, stored as an attachment
// in the same transaction.
func (s *Store) NewRow(ctx context.Context, params NewRowParams) (*Row, error) {
	ctx = ensureContext(ctx)
	entity := strings.TrimSpace(params.TargetEntity)
	if entity == "" && params.BatchSQL {
		entity = BatchSQLEntity
	}
	if entity == "" {
		return nil, fmt.Errorf("%w: target entity is required", ErrInvalidRow)
	}
	if len(params.Script) > 0 && !params.BatchSQL {
		return nil, fmt.Errorf("%w: only batch-sql rows carry scripts", ErrInvalidRow)
	}
	requestJSON, err := nested.Encode(params.Request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	timestamp := formatTime(s.timestamp())
	var id int64
	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO import_queue_rows (
                target_entity, request_json, solved_data_json, done, process_runs,
                parent_row_id, batch_sql, created_at, updated_at
            ) VALUES (?, ?, '{}', 0, 0, ?, ?, ?, ?)`,
			entity,
			string(requestJSON),
			nullableInt64(params.ParentRowID),
			boolToInt(params.BatchSQL),
			timestamp,
			timestamp,
		)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if len(params.Script) > 0 {
			if err := insertAttachment(ctx, tx, id, params.ScriptName, params.Script, timestamp); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("insert row: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the row or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Row, error) {
	ctx = ensureContext(ctx)
	row, err := scanRow(s.db.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM import_queue_rows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}
	return row, nil
}

// Exists reports whether a row with the id is stored.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM import_queue_rows WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("row exists: %w", err)
	}
	return count > 0, nil
}

// Update persists the row's request, solved data, done flag and run counter.
// A stored done flag is never cleared.
func (s *Store) Update(ctx context.Context, row *Row) error {
	if row == nil {
		return fmt.Errorf("%w: row is nil", ErrInvalidRow)
	}
	if !row.IsPersisted() {
		return ErrNotPersisted
	}
	if strings.TrimSpace(row.TargetEntity) == "" {
		return fmt.Errorf("%w: row %d has no target entity", ErrInvalidRow, row.ID)
	}
	if row.ProcessRuns < 0 {
		return fmt.Errorf("%w: row %d has negative process runs", ErrInvalidRow, row.ID)
	}
	requestJSON, err := nested.Encode(row.Request)
	if err != nil {
		return fmt.Errorf("%w: encode request of row %d: %v", ErrInvalidRow, row.ID, err)
	}
	solvedJSON, err := nested.Encode(row.SolvedData)
	if err != nil {
		return fmt.Errorf("%w: encode solved data of row %d: %v", ErrInvalidRow, row.ID, err)
	}

	row.UpdatedAt = s.timestamp()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_queue_rows
         SET request_json = ?, solved_data_json = ?,
             done = CASE WHEN done = 1 THEN 1 ELSE ? END,
             process_runs = ?, updated_at = ?
         WHERE id = ?`,
		string(requestJSON),
		string(solvedJSON),
		boolToInt(row.Done),
		row.ProcessRuns,
		formatTime(row.UpdatedAt),
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRowNotFound, row.ID)
	}
	return nil
}

// MarkDone sets the done flag without touching any other column.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE import_queue_rows SET done = 1, updated_at = ? WHERE id = ?`,
		formatTime(s.timestamp()), id,
	)
	if err != nil {
		return fmt.Errorf("mark row done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRowNotFound, id)
	}
	return nil
}

// IncrementRuns bumps the run counter of a row that is being held idle.
func (s *Store) IncrementRuns(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE import_queue_rows SET process_runs = process_runs + 1, updated_at = ? WHERE id = ?`,
		formatTime(s.timestamp()), id,
	)
	if err != nil {
		return fmt.Errorf("increment process runs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRowNotFound, id)
	}
	return nil
}

// SiblingsOf returns the rows whose parent is id, oldest first.
func (s *Store) SiblingsOf(ctx context.Context, id int64) ([]*Row, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rowColumns+` FROM import_queue_rows WHERE parent_row_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query siblings: %w", err)
	}
	return scanRows(rows)
}

// LastSibling returns the newest solver row whose parent is id, or nil. Batch
// SQL children are never a sibling tail.
func (s *Store) LastSibling(ctx context.Context, id int64) (*Row, error) {
	ctx = ensureContext(ctx)
	row, err := scanRow(s.db.QueryRowContext(ctx,
		`SELECT `+rowColumns+` FROM import_queue_rows
         WHERE parent_row_id = ? AND batch_sql = 0
         ORDER BY created_at DESC, id DESC LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last sibling: %w", err)
	}
	return row, nil
}

// HasBatchSQL reports whether any unconsumed macro-transaction row is queued.
func (s *Store) HasBatchSQL(ctx context.Context) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM import_queue_rows WHERE batch_sql = 1 AND done = 0`).Scan(&count); err != nil {
		return false, fmt.Errorf("check batch sql rows: %w", err)
	}
	return count > 0, nil
}

// SolvableRows returns every row outside the batch-SQL path in store order.
func (s *Store) SolvableRows(ctx context.Context) ([]*Row, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rowColumns+` FROM import_queue_rows WHERE batch_sql = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query solvable rows: %w", err)
	}
	return scanRows(rows)
}

// BatchSQLRows returns the unconsumed macro-transaction rows in store order.
func (s *Store) BatchSQLRows(ctx context.Context) ([]*Row, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rowColumns+` FROM import_queue_rows WHERE batch_sql = 1 AND done = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query batch sql rows: %w", err)
	}
	return scanRows(rows)
}

// ListFilter narrows List results.
type ListFilter struct {
	OnlyPending bool
	OnlyDone    bool
}

// List returns rows in store order.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Row, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + rowColumns + ` FROM import_queue_rows`
	switch {
	case filter.OnlyPending && !filter.OnlyDone:
		query += ` WHERE done = 0`
	case filter.OnlyDone && !filter.OnlyPending:
		query += ` WHERE done = 1`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return scanRows(rows)
}

// DeleteDone removes every row flagged done together with its attachment.
func (s *Store) DeleteDone(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var deleted int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM row_attachments WHERE row_id IN (SELECT id FROM import_queue_rows WHERE done = 1)`); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM import_queue_rows WHERE done = 1`)
		if err != nil {
			return err
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("delete done rows: %w", err)
	}
	return deleted, nil
}

// Remove deletes a row by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM import_queue_rows WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM import_queue_rows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}
