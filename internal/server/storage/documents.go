// Package storage defines the persistence surface of the emulator: a flat
// table of documents addressed by their full resource name.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/finsync/pkg/api"
)

// Store runs document reads and writes inside one atomic transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	// GetDocument returns ErrDocumentNotFound when name is absent
	GetDocument(ctx context.Context, name string) (*api.Document, error)

	// PutDocument creates or replaces doc. The create time of an existing
	// document is kept; doc.CreateTime and doc.UpdateTime are filled in.
	PutDocument(ctx context.Context, doc *api.Document, at time.Time) error

	// DeleteDocument reports whether a document was removed
	DeleteDocument(ctx context.Context, name string) (bool, error)

	// ListDocuments returns the documents of parent/collection ordered by name
	ListDocuments(ctx context.Context, parent, collection string) ([]api.Document, error)
}

// SplitName returns the parent path, collection id and document id of a
// document name. The name must end in collection/id.
func SplitName(name string) (parent, collection, id string, err error) {
	name = strings.Trim(name, "/")
	i := strings.LastIndexByte(name, '/')
	if i <= 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	id = name[i+1:]
	rest := name[:i]

	j := strings.LastIndexByte(rest, '/')
	if j <= 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	parent, collection = rest[:j], rest[j+1:]
	if id == "" || collection == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return parent, collection, id, nil
}
