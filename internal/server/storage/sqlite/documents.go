package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/finsync/internal/server/storage"
	"github.com/iudanet/finsync/pkg/api"
)

// txStore implements storage.Tx on top of one *sql.Tx
type txStore struct {
	tx *sql.Tx
}

// GetDocument retrieves a document by its full name
func (t *txStore) GetDocument(ctx context.Context, name string) (*api.Document, error) {
	query := `
		SELECT name, fields, create_time, update_time
		FROM documents
		WHERE name = ?
	`

	doc, err := scanDocument(t.tx.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// PutDocument upserts a document keeping the original create_time
func (t *txStore) PutDocument(ctx context.Context, doc *api.Document, at time.Time) error {
	parent, collection, _, err := storage.SplitName(doc.Name)
	if err != nil {
		return err
	}

	fields := doc.Fields
	if fields == nil {
		fields = map[string]api.Value{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	ts := api.FormatTimestamp(at)
	query := `
		INSERT INTO documents (name, parent, collection, fields, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			fields = excluded.fields,
			update_time = excluded.update_time
		RETURNING create_time
	`

	var createTime string
	if err := t.tx.QueryRowContext(ctx, query, doc.Name, parent, collection, string(data), ts, ts).Scan(&createTime); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}

	doc.CreateTime = createTime
	doc.UpdateTime = ts
	return nil
}

// DeleteDocument removes a document by name
func (t *txStore) DeleteDocument(ctx context.Context, name string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListDocuments returns every document directly in parent/collection
func (t *txStore) ListDocuments(ctx context.Context, parent, collection string) ([]api.Document, error) {
	query := `
		SELECT name, fields, create_time, update_time
		FROM documents
		WHERE parent = ? AND collection = ?
		ORDER BY name
	`

	rows, err := t.tx.QueryContext(ctx, query, parent, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]api.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*api.Document, error) {
	var (
		doc  api.Document
		data string
	)
	if err := row.Scan(&doc.Name, &data, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields of %s: %w", doc.Name, err)
	}
	return &doc, nil
}
