package documents

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/server/storage/sqlite"
	"github.com/iudanet/finsync/pkg/api"
)

const (
	testProject = "p"
	testUID     = "u1"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func name(collection, id string) string {
	return api.UserDocumentPath(testProject, testUID, collection, id)
}

func createWrite(collection, id string, fields map[string]api.Value) api.Write {
	exists := false
	return api.Write{
		Update:          &api.Document{Name: name(collection, id), Fields: fields},
		CurrentDocument: &api.Precondition{Exists: &exists},
	}
}

func event(id, evType, entityID string, payload map[string]api.Value) api.Write {
	return createWrite(api.CollectionEvents, id, map[string]api.Value{
		api.EventFieldType:      api.StringVal(evType),
		api.EventFieldEntityID:  api.StringVal(entityID),
		api.EventFieldPayload:   api.MapVal(payload),
		api.EventFieldCreatedAt: api.TimestampVal("2025-06-01T10:00:00Z"),
	})
}

func commit(t *testing.T, s *Service, writes ...api.Write) error {
	t.Helper()
	_, err := s.Commit(context.Background(), testUID, &api.CommitRequest{Writes: writes})
	return err
}

func TestCommit_CreatePrecondition(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	resp, err := s.Commit(ctx, testUID, &api.CommitRequest{Writes: []api.Write{
		createWrite("notes", "n1", map[string]api.Value{"text": api.StringVal("hi")}),
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CommitTime)
	assert.Len(t, resp.WriteResults, 1)

	err = commit(t, s, createWrite("notes", "n1", nil))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	doc, err := s.Get(ctx, testUID, name("notes", "n1"))
	require.NoError(t, err)
	assert.Equal(t, "hi", *doc.Fields["text"].StringValue)
}

func TestCommit_IsAtomic(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	require.NoError(t, commit(t, s, createWrite("notes", "n1", nil)))

	err := commit(t, s,
		createWrite("notes", "n2", nil),
		createWrite("notes", "n1", nil),
	)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.Get(ctx, testUID, name("notes", "n2"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommit_ExistsTrueAndDelete(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	exists := true
	err := commit(t, s, api.Write{
		Update:          &api.Document{Name: name("notes", "n1")},
		CurrentDocument: &api.Precondition{Exists: &exists},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, commit(t, s, createWrite("notes", "n1", nil)))
	require.NoError(t, commit(t, s, api.Write{Delete: name("notes", "n1")}))

	_, err = s.Get(ctx, testUID, name("notes", "n1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommit_Rejects(t *testing.T) {
	s := setupService(t)
	other := api.UserDocumentPath(testProject, "u2", "notes", "n1")

	tests := []struct {
		name    string
		writes  []api.Write
		wantErr error
	}{
		{"empty commit", nil, ErrInvalidArgument},
		{"empty write", []api.Write{{}}, ErrInvalidArgument},
		{"update and delete", []api.Write{{Update: &api.Document{Name: name("a", "b")}, Delete: name("a", "b")}}, ErrInvalidArgument},
		{"other user", []api.Write{{Update: &api.Document{Name: other}}}, ErrPermissionDenied},
		{"outside user tree", []api.Write{{Delete: api.DocumentsPath(testProject) + "/config/x"}}, ErrPermissionDenied},
		{"malformed name", []api.Write{{Delete: "users/u1/notes/n1"}}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := commit(t, s, tt.writes...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommit_ProjectsTransactionEvents(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	payload := func(amount int64, updatedAt string) map[string]api.Value {
		return map[string]api.Value{
			"id":            api.StringVal("t1"),
			"amount":        api.IntegerVal(amount),
			"category_id":   api.StringVal("cat-1"),
			"category_name": api.StringVal("Food"),
			"updated_at":    api.TimestampVal(updatedAt),
		}
	}

	require.NoError(t, commit(t, s, event("e1", "txn_created", "t1", payload(10, "2025-06-01T10:00:00Z"))))

	snap, err := s.Get(ctx, testUID, name(api.CollectionTransactions, "t1"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), *snap.Fields["amount"].IntegerValue)

	cat, err := s.Get(ctx, testUID, name(api.CollectionCategories, "cat-1"))
	require.NoError(t, err)
	assert.Equal(t, "Food", *cat.Fields["name"].StringValue)

	// более новое обновление применяется
	require.NoError(t, commit(t, s, event("e2", "txn_updated", "t1", payload(20, "2025-06-01T11:00:00Z"))))
	// устаревшее - нет
	require.NoError(t, commit(t, s, event("e3", "txn_updated", "t1", payload(5, "2025-06-01T09:00:00Z"))))

	snap, err = s.Get(ctx, testUID, name(api.CollectionTransactions, "t1"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), *snap.Fields["amount"].IntegerValue)

	require.NoError(t, commit(t, s, event("e4", "txn_deleted", "t1", map[string]api.Value{"transaction_id": api.StringVal("t1")})))
	_, err = s.Get(ctx, testUID, name(api.CollectionTransactions, "t1"))
	assert.ErrorIs(t, err, ErrNotFound)

	// события остаются в журнале
	rows, err := s.RunQuery(ctx, testUID, api.DocumentsPath(testProject)+"/users/"+testUID, &api.RunQueryRequest{
		StructuredQuery: api.StructuredQuery{From: []api.CollectionSelector{{CollectionID: api.CollectionEvents}}},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCommit_SkipsUnprojectedEvents(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	require.NoError(t, commit(t, s,
		event("e1", "recurring_created", "r1", map[string]api.Value{"id": api.StringVal("r1")}),
		event("e2", "bogus", "x1", nil),
		event("e3", "account_created", "", nil),
	))

	rows, err := s.RunQuery(ctx, testUID, api.DocumentsPath(testProject)+"/users/"+testUID, &api.RunQueryRequest{
		StructuredQuery: api.StructuredQuery{From: []api.CollectionSelector{{CollectionID: api.CollectionAccounts}}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Document)
	assert.NotEmpty(t, rows[0].ReadTime)
}

func TestPatch(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	devName := name(api.CollectionDevices, "d1")

	doc, err := s.Patch(ctx, testUID, devName, map[string]api.Value{
		"deviceId": api.StringVal("d1"),
		"cursor":   api.StringVal("e1"),
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.UpdateTime)

	_, err = s.Patch(ctx, testUID, devName, map[string]api.Value{
		"label":  api.StringVal("phone"),
		"ignore": api.StringVal("x"),
	}, []string{"label", "cursor"})
	require.NoError(t, err)

	got, err := s.Get(ctx, testUID, devName)
	require.NoError(t, err)
	assert.Equal(t, "d1", *got.Fields["deviceId"].StringValue)
	assert.Equal(t, "phone", *got.Fields["label"].StringValue)
	assert.NotContains(t, got.Fields, "cursor")
	assert.NotContains(t, got.Fields, "ignore")

	_, err = s.Patch(ctx, testUID, devName, nil, []string{"a.b"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.Patch(ctx, "u2", devName, nil, nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRunQuery_Rejects(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	parent := api.DocumentsPath(testProject) + "/users/" + testUID

	_, err := s.RunQuery(ctx, testUID, parent, &api.RunQueryRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.RunQuery(ctx, "u2", parent, &api.RunQueryRequest{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
