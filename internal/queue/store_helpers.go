package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goggles/internal/nested"
)

const rowColumns = "id, target_entity, request_json, solved_data_json, done, process_runs, parent_row_id, batch_sql, created_at, updated_at"

// timestampLayout is fixed width so stored timestamps compare correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (*Row, error) {
	var (
		row         Row
		requestRaw  string
		solvedRaw   string
		done        int
		parentRowID sql.NullInt64
		batchSQL    int
		createdRaw  string
		updatedRaw  string
	)
	if err := sc.Scan(
		&row.ID,
		&row.TargetEntity,
		&requestRaw,
		&solvedRaw,
		&done,
		&row.ProcessRuns,
		&parentRowID,
		&batchSQL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	var err error
	if row.Request, err = nested.Decode([]byte(requestRaw)); err != nil {
		return nil, fmt.Errorf("decode request of row %d: %w", row.ID, err)
	}
	if row.SolvedData, err = nested.Decode([]byte(solvedRaw)); err != nil {
		return nil, fmt.Errorf("decode solved data of row %d: %w", row.ID, err)
	}
	row.Done = done != 0
	row.BatchSQL = batchSQL != 0
	if parentRowID.Valid {
		id := parentRowID.Int64
		row.ParentRowID = &id
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		row.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		row.UpdatedAt = updated
	}
	return &row, nil
}

func scanRows(rows *sql.Rows) ([]*Row, error) {
	defer rows.Close()
	var out []*Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanIssue(sc scanner) (*Issue, error) {
	var (
		issue      Issue
		status     int
		createdRaw string
		updatedRaw string
	)
	if err := sc.Scan(&issue.ID, &issue.Code, &issue.Description, &status, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	issue.Status = IssueStatus(status)
	if created, err := parseTimeString(createdRaw); err == nil {
		issue.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		issue.UpdatedAt = updated
	}
	return &issue, nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
