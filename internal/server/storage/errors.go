package storage

import "errors"

// Common storage errors
var (
	// ErrDocumentNotFound indicates that no document has the requested name
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidName indicates a document name with an odd number of segments
	// below the documents root
	ErrInvalidName = errors.New("invalid document name")
)
