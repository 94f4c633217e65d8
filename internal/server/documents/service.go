// Package documents implements the subset of the document store REST
// surface the sync client uses: atomic commits with existence
// preconditions, structured queries over one collection and single
// document get/patch. Event writes are projected into the snapshot
// collections a new device bootstraps from.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/finsync/internal/server/storage"
	"github.com/iudanet/finsync/pkg/api"
)

// Service handles document operations for authenticated users
type Service struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new document service
func NewService(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Commit applies all writes in one transaction. A failed precondition
// aborts the whole commit.
func (s *Service) Commit(ctx context.Context, uid string, req *api.CommitRequest) (*api.CommitResponse, error) {
	if len(req.Writes) == 0 {
		return nil, fmt.Errorf("%w: empty commit", ErrInvalidArgument)
	}

	for i, w := range req.Writes {
		name, err := writeName(w)
		if err != nil {
			return nil, fmt.Errorf("write %d: %w", i, err)
		}
		if err := checkOwner(name, uid); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	results := make([]api.WriteResult, 0, len(req.Writes))

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		results = results[:0]
		for _, w := range req.Writes {
			if err := s.applyWrite(ctx, tx, w, now); err != nil {
				return err
			}
			results = append(results, api.WriteResult{UpdateTime: api.FormatTimestamp(now)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &api.CommitResponse{
		CommitTime:   api.FormatTimestamp(now),
		WriteResults: results,
	}, nil
}

func writeName(w api.Write) (string, error) {
	switch {
	case w.Update != nil && w.Delete != "":
		return "", fmt.Errorf("%w: both update and delete set", ErrInvalidArgument)
	case w.Update != nil:
		return w.Update.Name, nil
	case w.Delete != "":
		return w.Delete, nil
	default:
		return "", fmt.Errorf("%w: empty write", ErrInvalidArgument)
	}
}

func (s *Service) applyWrite(ctx context.Context, tx storage.Tx, w api.Write, now time.Time) error {
	name, _ := writeName(w)

	if w.CurrentDocument != nil && w.CurrentDocument.Exists != nil {
		_, err := tx.GetDocument(ctx, name)
		found := err == nil
		if err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
			return err
		}

		switch {
		case found && !*w.CurrentDocument.Exists:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		case !found && *w.CurrentDocument.Exists:
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}

	if w.Delete != "" {
		_, err := tx.DeleteDocument(ctx, name)
		return err
	}

	doc := &api.Document{Name: name, Fields: w.Update.Fields}
	return s.put(ctx, tx, doc, now)
}

// put stores doc and projects it when it is an event of a user log
func (s *Service) put(ctx context.Context, tx storage.Tx, doc *api.Document, now time.Time) error {
	if err := tx.PutDocument(ctx, doc, now); err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}

	parent, collection, _, err := storage.SplitName(doc.Name)
	if err != nil || collection != api.CollectionEvents || !isUserRoot(parent) {
		return nil
	}
	return s.project(ctx, tx, parent, doc, now)
}

// Get returns one document
func (s *Service) Get(ctx context.Context, uid, name string) (*api.Document, error) {
	if err := checkOwner(name, uid); err != nil {
		return nil, err
	}

	var doc *api.Document
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		doc, err = tx.GetDocument(ctx, name)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return doc, nil
}

// Patch creates or updates a document. With an empty mask the fields
// replace the document; otherwise only the top-level fields named in mask
// change and mask entries missing from fields are removed.
func (s *Service) Patch(ctx context.Context, uid, name string, fields map[string]api.Value, mask []string) (*api.Document, error) {
	if err := checkOwner(name, uid); err != nil {
		return nil, err
	}
	for _, path := range mask {
		if path == "" || strings.Contains(path, ".") {
			return nil, fmt.Errorf("%w: unsupported field path %q", ErrInvalidArgument, path)
		}
	}

	now := s.now().UTC()
	doc := &api.Document{Name: name}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		doc.Fields = fields
		if len(mask) > 0 {
			merged, err := mergeMasked(ctx, tx, name, fields, mask)
			if err != nil {
				return err
			}
			doc.Fields = merged
		}
		return s.put(ctx, tx, doc, now)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func mergeMasked(ctx context.Context, tx storage.Tx, name string, fields map[string]api.Value, mask []string) (map[string]api.Value, error) {
	merged := map[string]api.Value{}

	current, err := tx.GetDocument(ctx, name)
	switch {
	case err == nil:
		for k, v := range current.Fields {
			merged[k] = v
		}
	case !errors.Is(err, storage.ErrDocumentNotFound):
		return nil, err
	}

	for _, path := range mask {
		if v, ok := fields[path]; ok {
			merged[path] = v
		} else {
			delete(merged, path)
		}
	}
	return merged, nil
}

// RunQuery evaluates q over the collection it selects under parent. An
// empty result still carries one row with the read time.
func (s *Service) RunQuery(ctx context.Context, uid, parent string, req *api.RunQueryRequest) ([]api.RunQueryResponseRow, error) {
	if err := checkOwner(parent, uid); err != nil {
		return nil, err
	}

	q := &req.StructuredQuery
	if len(q.From) != 1 || q.From[0].CollectionID == "" {
		return nil, fmt.Errorf("%w: exactly one collection must be selected", ErrInvalidArgument)
	}

	var docs []api.Document
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		docs, err = tx.ListDocuments(ctx, parent, q.From[0].CollectionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	docs, err = Evaluate(docs, q)
	if err != nil {
		return nil, err
	}

	readTime := api.FormatTimestamp(s.now())
	if len(docs) == 0 {
		return []api.RunQueryResponseRow{{ReadTime: readTime}}, nil
	}

	rows := make([]api.RunQueryResponseRow, 0, len(docs))
	for i := range docs {
		rows = append(rows, api.RunQueryResponseRow{Document: &docs[i], ReadTime: readTime})
	}
	return rows, nil
}

// checkOwner requires name to lie under documents/users/{uid}
func checkOwner(name, uid string) error {
	_, rest, ok := strings.Cut(name, "/documents/")
	if !ok || !strings.HasPrefix(name, "projects/") {
		return fmt.Errorf("%w: malformed name %q", ErrInvalidArgument, name)
	}

	segments := strings.Split(rest, "/")
	if len(segments) < 2 || segments[0] != api.CollectionUsers || segments[1] == "" {
		return fmt.Errorf("%w: %s is outside the user tree", ErrPermissionDenied, name)
	}
	if segments[1] != uid {
		return fmt.Errorf("%w: %s belongs to another user", ErrPermissionDenied, name)
	}
	return nil
}

// isUserRoot reports whether parent is ".../documents/users/{uid}"
func isUserRoot(parent string) bool {
	_, rest, ok := strings.Cut(parent, "/documents/")
	if !ok {
		return false
	}
	segments := strings.Split(rest, "/")
	return len(segments) == 2 && segments[0] == api.CollectionUsers
}
