package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/server/documents"
	"github.com/iudanet/finsync/pkg/api"
)

const dbPath = "/projects/p/databases/(default)"

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newTestRouter mounts the document routes and injects uid like AuthMiddleware
func newTestRouter(docs DocumentService, uid string) http.Handler {
	h := NewDocumentHandler(setupTestLogger(), docs)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if uid != "" {
				req = req.WithContext(WithUserID(req.Context(), uid))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/projects/{project}/databases/{database}/documents:commit", h.Commit)
	r.HandleFunc("/projects/{project}/databases/{database}/documents/*", h.Documents)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorStatus {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestDocumentHandler_Commit(t *testing.T) {
	mock := &DocumentServiceMock{
		CommitFunc: func(ctx context.Context, uid string, req *api.CommitRequest) (*api.CommitResponse, error) {
			return &api.CommitResponse{CommitTime: "2025-01-01T00:00:00Z", WriteResults: []api.WriteResult{{}}}, nil
		},
	}
	h := newTestRouter(mock, "u1")

	req := api.CommitRequest{Writes: []api.Write{{Delete: "projects/p/databases/(default)/documents/users/u1/notes/n1"}}}
	w := do(t, h, http.MethodPost, dbPath+"/documents:commit", req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp api.CommitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-01-01T00:00:00Z", resp.CommitTime)

	calls := mock.CommitCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "u1", calls[0].Uid)
	assert.Equal(t, req.Writes[0].Delete, calls[0].Req.Writes[0].Delete)
}

func TestDocumentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		wantStatus string
		wantCode   int
	}{
		{name: "already exists", err: fmt.Errorf("%w: x", documents.ErrAlreadyExists), wantCode: http.StatusConflict, wantStatus: api.StatusAlreadyExists},
		{name: "not found", err: documents.ErrNotFound, wantCode: http.StatusNotFound, wantStatus: api.StatusNotFound},
		{name: "invalid", err: documents.ErrInvalidArgument, wantCode: http.StatusBadRequest, wantStatus: api.StatusInvalidArgument},
		{name: "denied", err: documents.ErrPermissionDenied, wantCode: http.StatusForbidden, wantStatus: api.StatusPermissionDenied},
		{name: "internal", err: assert.AnError, wantCode: http.StatusInternalServerError, wantStatus: api.StatusInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &DocumentServiceMock{
				CommitFunc: func(ctx context.Context, uid string, req *api.CommitRequest) (*api.CommitResponse, error) {
					return nil, tt.err
				},
			}
			w := do(t, newTestRouter(mock, "u1"), http.MethodPost, dbPath+"/documents:commit", api.CommitRequest{})

			assert.Equal(t, tt.wantCode, w.Code)
			e := decodeError(t, w)
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, tt.wantCode, e.Code)
			if tt.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, e.Message, assert.AnError.Error())
			}
		})
	}
}

func TestDocumentHandler_RequestErrors(t *testing.T) {
	mock := &DocumentServiceMock{}

	tests := []struct {
		name     string
		uid      string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{"unauthenticated", "", http.MethodPost, dbPath + "/documents:commit", "{}", http.StatusUnauthorized},
		{"other database", "u1", http.MethodPost, "/projects/p/databases/other/documents:commit", "{}", http.StatusNotFound},
		{"bad json", "u1", http.MethodPost, dbPath + "/documents:commit", "{", http.StatusBadRequest},
		{"runQuery via GET", "u1", http.MethodGet, dbPath + "/documents/users/u1:runQuery", nil, http.StatusMethodNotAllowed},
		{"delete not supported", "u1", http.MethodDelete, dbPath + "/documents/users/u1/notes/n1", nil, http.StatusMethodNotAllowed},
		{"empty path", "u1", http.MethodGet, dbPath + "/documents/", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestRouter(mock, tt.uid), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	assert.Empty(t, mock.CommitCalls())
	assert.Empty(t, mock.GetCalls())
}

func TestDocumentHandler_RunQuery(t *testing.T) {
	doc := &api.Document{Name: "projects/p/databases/(default)/documents/users/u1/events/e1"}
	mock := &DocumentServiceMock{
		RunQueryFunc: func(ctx context.Context, uid, parent string, req *api.RunQueryRequest) ([]api.RunQueryResponseRow, error) {
			return []api.RunQueryResponseRow{{Document: doc, ReadTime: "t"}}, nil
		},
	}
	h := newTestRouter(mock, "u1")

	q := api.NewCollectionQuery(api.CollectionEvents, 10)
	w := do(t, h, http.MethodPost, dbPath+"/documents/users/u1:runQuery", q)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []api.RunQueryResponseRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, doc.Name, rows[0].Document.Name)

	calls := mock.RunQueryCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "projects/p/databases/(default)/documents/users/u1", calls[0].Parent)
	assert.Equal(t, api.CollectionEvents, calls[0].Req.StructuredQuery.From[0].CollectionID)
	assert.Equal(t, 10, *calls[0].Req.StructuredQuery.Limit)
}

func TestDocumentHandler_GetAndPatch(t *testing.T) {
	name := "projects/p/databases/(default)/documents/users/u1/devices/d1"
	mock := &DocumentServiceMock{
		GetFunc: func(ctx context.Context, uid, n string) (*api.Document, error) {
			if n != name {
				return nil, documents.ErrNotFound
			}
			return &api.Document{Name: n, Fields: map[string]api.Value{"deviceId": api.StringVal("d1")}}, nil
		},
		PatchFunc: func(ctx context.Context, uid, n string, fields map[string]api.Value, mask []string) (*api.Document, error) {
			return &api.Document{Name: n, Fields: fields}, nil
		},
	}
	h := newTestRouter(mock, "u1")

	w := do(t, h, http.MethodGet, dbPath+"/documents/users/u1/devices/d1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got api.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "d1", *got.Fields["deviceId"].StringValue)

	w = do(t, h, http.MethodGet, dbPath+"/documents/users/u1/devices/d2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := api.Document{Fields: map[string]api.Value{"label": api.StringVal("phone")}}
	path := dbPath + "/documents/users/u1/devices/d1?updateMask.fieldPaths=label&updateMask.fieldPaths=cursor"
	w = do(t, h, http.MethodPatch, path, body)
	require.Equal(t, http.StatusOK, w.Code)

	calls := mock.PatchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, name, calls[0].Name)
	assert.Equal(t, []string{"label", "cursor"}, calls[0].Mask)
	assert.True(t, strings.HasSuffix(calls[0].Name, "/devices/d1"))
}
