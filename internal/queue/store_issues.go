package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const issueColumns = "id, code, description, status, created_at, updated_at"

// NewIssue files an issue report in the new state.
func (s *Store) NewIssue(ctx context.Context, code, description string) (*Issue, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("issue code is required")
	}
	timestamp := formatTime(s.timestamp())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO issues (code, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		code, strings.TrimSpace(description), int(IssueNew), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetIssue(ctx, id)
}

// GetIssue returns the issue or nil when it does not exist.
func (s *Store) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	ctx = ensureContext(ctx)
	issue, err := scanIssue(s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

// ListIssues returns all issues ordered by id.
func (s *Store) ListIssues(ctx context.Context) ([]*Issue, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()
	var out []*Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// UpdateIssueStatus moves an issue to a new status and refreshes updated_at.
func (s *Store) UpdateIssueStatus(ctx context.Context, id int64, status IssueStatus) error {
	if _, ok := issueStatusNames[status]; !ok {
		return fmt.Errorf("unknown issue status %d", int(status))
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE issues SET status = ?, updated_at = ? WHERE id = ?`,
		int(status), formatTime(s.timestamp()), id,
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrIssueNotFound, id)
	}
	return nil
}

// DeleteObsoleteIssues removes issues whose status exceeds maxStatus and whose
// last update is older than cutoff.
func (s *Store) DeleteObsoleteIssues(ctx context.Context, maxStatus IssueStatus, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM issues WHERE status > ? AND updated_at < ?`,
		int(maxStatus), formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("delete obsolete issues: %w", err)
	}
	return res.RowsAffected()
}
