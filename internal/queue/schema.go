package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

// schemaSQL creates the row, attachment, issue and settings tables in one pass.
//
//go:embed schema.sql
var schemaSQL string

// schemaVersion stamps databases created from schemaSQL. A queue database with
// any other stamp is refused; there are no migrations.
const schemaVersion = 1

// ErrSchemaMismatch reports a queue database stamped with a different version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// expectedTables lists the domain tables CheckHealth looks for.
var expectedTables = []string{"import_queue_rows", "row_attachments", "issues", "settings"}

// initSchema creates and stamps an empty database, or checks the stamp of an
// existing one.
func (s *Store) initSchema(ctx context.Context) error {
	stamped, err := s.tableExists(ctx, "schema_version")
	if err != nil {
		return fmt.Errorf("inspect queue database: %w", err)
	}
	if !stamped {
		return s.applySchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s is at version %d but goggles expects %d; remove it to start with an empty queue",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
	return nil
}

// applySchema runs schemaSQL and writes the version stamp atomically, so a
// crash never leaves tables without a stamp.
func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create queue tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
