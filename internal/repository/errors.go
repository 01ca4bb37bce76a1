package repository

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrStatusConflict is returned when a guarded write finds the document
	// in a different status than expected, i.e. another writer got there first.
	ErrStatusConflict = errors.New("status changed concurrently")
)
