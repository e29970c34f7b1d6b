package queue

import "errors"

var (
	// ErrRowNotFound is returned when a write targets a row that no longer exists.
	ErrRowNotFound = errors.New("queue row not found")
	// ErrNotPersisted is returned when a write targets a row without an id.
	ErrNotPersisted = errors.New("queue row not persisted")
	// ErrInvalidRow is returned for rows that fail validation before a write.
	ErrInvalidRow = errors.New("invalid queue row")
	// ErrIssueNotFound is returned when an issue id does not exist.
	ErrIssueNotFound = errors.New("issue not found")
)
