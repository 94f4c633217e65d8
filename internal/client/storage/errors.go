package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no credentials are stored
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrNotFound indicates that the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
