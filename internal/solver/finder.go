package solver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"goggles/internal/nested"
)

// Finder looks records up in the primary datastore.
type Finder interface {
	Exists(ctx context.Context, table string, id int64) (bool, error)
	FindID(ctx context.Context, table string, criteria map[string]any) (int64, bool, error)
}

// SQLFinder queries a database/sql handle. Table and column names come from
// the static entity table, never from request payloads.
type SQLFinder struct {
	db *sql.DB
}

// NewSQLFinder wraps an open database handle.
func NewSQLFinder(db *sql.DB) *SQLFinder {
	return &SQLFinder{db: db}
}

func (f *SQLFinder) Exists(ctx context.Context, table string, id int64) (bool, error) {
	var found int64
	err := f.db.QueryRowContext(ctx, "SELECT id FROM "+quoteIdent(table)+" WHERE id = ? LIMIT 1", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find %s %d: %w", table, id, err)
	}
	return true, nil
}

func (f *SQLFinder) FindID(ctx context.Context, table string, criteria map[string]any) (int64, bool, error) {
	if len(criteria) == 0 {
		return 0, false, nil
	}
	columns := make([]string, 0, len(criteria))
	for column := range criteria {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		clauses = append(clauses, quoteIdent(column)+" = ?")
		args = append(args, sqlValue(criteria[column]))
	}
	query := "SELECT id FROM " + quoteIdent(table) + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY id LIMIT 1"

	var id int64
	err := f.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find %s by key: %w", table, err)
	}
	return id, true, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func sqlValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int32:
		return int64(val)
	default:
		return val
	}
}

// MemoryFinder serves lookups from in-memory tables keyed by table name.
type MemoryFinder struct {
	mu     sync.RWMutex
	tables map[string][]nested.Map
}

// NewMemoryFinder returns an empty finder.
func NewMemoryFinder() *MemoryFinder {
	return &MemoryFinder{tables: make(map[string][]nested.Map)}
}

// Add stores a record. The record must carry an integer "id".
func (f *MemoryFinder) Add(table string, record nested.Map) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], record.Clone())
}

func (f *MemoryFinder) Exists(_ context.Context, table string, id int64) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.tables[table] {
		if recordID, ok := nested.Int64(record["id"]); ok && recordID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *MemoryFinder) FindID(_ context.Context, table string, criteria map[string]any) (int64, bool, error) {
	if len(criteria) == 0 {
		return 0, false, nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.tables[table] {
		if matches(record, criteria) {
			id, ok := nested.Int64(record["id"])
			return id, ok, nil
		}
	}
	return 0, false, nil
}

func matches(record nested.Map, criteria map[string]any) bool {
	for column, want := range criteria {
		if !sameValue(record[column], want) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	ai, aInt := nested.Int64(a)
	bi, bInt := nested.Int64(b)
	if aInt && bInt {
		return ai == bi
	}
	return fmt.Sprint(sqlValue(a)) == fmt.Sprint(sqlValue(b))
}
