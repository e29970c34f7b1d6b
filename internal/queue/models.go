package queue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"goggles/internal/nested"
)

// Row is one unit of import-queue resolution work.
type Row struct {
	ID           int64
	TargetEntity string
	// Request is the producer's original, possibly incomplete, entity graph.
	Request nested.Map
	// SolvedData accumulates bindings discovered by earlier resolution passes.
	SolvedData  nested.Map
	Done        bool
	ProcessRuns int
	// ParentRowID is a lookup reference only; the parent may already be gone.
	ParentRowID *int64
	BatchSQL    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasParent reports whether the row references a parent row.
func (r *Row) HasParent() bool {
	return r != nil && r.ParentRowID != nil
}

// IsPersisted reports whether the row has been stored.
func (r *Row) IsPersisted() bool {
	return r != nil && r.ID > 0
}

// LatestRequest returns the payload the next solver pass should work from:
// accumulated solved data when present, otherwise the original request.
func (r *Row) LatestRequest() nested.Map {
	if r == nil {
		return nil
	}
	if !nested.IsBlank(r.SolvedData) {
		return r.SolvedData
	}
	return r.Request
}

// NewRowParams describes a row to enqueue.
type NewRowParams struct {
	TargetEntity string
	Request      nested.Map
	ParentRowID  *int64
	BatchSQL     bool
	// Script and ScriptName attach a SQL payload to a batch row.
	Script     []byte
	ScriptName string
}

// BatchSQLEntity is the target entity recorded for macro-transaction rows.
const BatchSQLEntity = "BatchSql"

// Attachment is the file payload stored alongside a batch-SQL row.
type Attachment struct {
	RowID     int64
	Filename  string
	Content   []byte
	SizeBytes int64
	CreatedAt time.Time
}

// Stats summarizes the import queue.
type Stats struct {
	Total    int
	Done     int
	Pending  int
	BatchSQL int
	Children int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseReadable bool
	SchemaVersion    int
	MissingTables    []string
	IntegrityCheck   bool
	TotalRows        int
	Error            string
}

// IssueStatus is the lifecycle state of an issue report.
type IssueStatus int

const (
	IssueNew IssueStatus = iota
	IssueReview
	IssueAccepted
	IssuePaused
	IssueSolved
	IssueRejected
)

// MaxProcessableIssueStatus is the highest status still awaiting work; issues
// above it are closed and eligible for cleanup.
const MaxProcessableIssueStatus = IssuePaused

var issueStatusNames = map[IssueStatus]string{
	IssueNew:      "new",
	IssueReview:   "review",
	IssueAccepted: "accepted",
	IssuePaused:   "paused",
	IssueSolved:   "solved",
	IssueRejected: "rejected",
}

func (s IssueStatus) String() string {
	if name, ok := issueStatusNames[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}

// Deletable reports whether the status is past the processable range.
func (s IssueStatus) Deletable() bool {
	return s > MaxProcessableIssueStatus
}

// ParseIssueStatus accepts a status name or its numeric value.
func ParseIssueStatus(value string) (IssueStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for status, name := range issueStatusNames {
		if name == value {
			return status, nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil {
		status := IssueStatus(n)
		if _, ok := issueStatusNames[status]; ok {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown issue status %q", value)
}

// Issue is a user-submitted issue report.
type Issue struct {
	ID          int64
	Code        string
	Description string
	Status      IssueStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
