package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

func insertAttachment(ctx context.Context, tx *sql.Tx, rowID int64, filename string, content []byte, timestamp string) error {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = fmt.Sprintf("row-%d.sql", rowID)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO row_attachments (row_id, filename, content, size_bytes, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(row_id) DO UPDATE SET
             filename = excluded.filename,
             content = excluded.content,
             size_bytes = excluded.size_bytes,
             created_at = excluded.created_at`,
		rowID, filename, content, len(content), timestamp,
	)
	return err
}

// Attach stores or replaces the file payload of a batch-SQL row.
func (s *Store) Attach(ctx context.Context, rowID int64, filename string, content []byte) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var batch int
		if err := tx.QueryRowContext(ctx, `SELECT batch_sql FROM import_queue_rows WHERE id = ?`, rowID).Scan(&batch); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrRowNotFound, rowID)
			}
			return err
		}
		if batch == 0 {
			return fmt.Errorf("%w: row %d is not a batch-sql row", ErrInvalidRow, rowID)
		}
		if err := insertAttachment(ctx, tx, rowID, filename, content, formatTime(s.timestamp())); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("attach file: %w", err)
	}
	return nil
}

// Attachment returns the payload attached to a row, or nil when none exists.
func (s *Store) Attachment(ctx context.Context, rowID int64) (*Attachment, error) {
	ctx = ensureContext(ctx)
	var (
		att        Attachment
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT row_id, filename, content, size_bytes, created_at FROM row_attachments WHERE row_id = ?`, rowID,
	).Scan(&att.RowID, &att.Filename, &att.Content, &att.SizeBytes, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		att.CreatedAt = created
	}
	return &att, nil
}

// PurgeAttachment drops a row's payload and reports whether one existed.
func (s *Store) PurgeAttachment(ctx context.Context, rowID int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM row_attachments WHERE row_id = ?`, rowID)
	if err != nil {
		return false, fmt.Errorf("purge attachment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
