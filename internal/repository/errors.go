package repository

import "errors"

// Common repository errors.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrVersionConflict indicates a compare-and-swap write found a stale
	// version. The caller must re-read and retry instead of losing the update.
	ErrVersionConflict = errors.New("repository: version conflict")
)

var (
	ErrRoomNotFound = ErrNotFound
)
