package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/finsync/internal/server/documents"
	"github.com/iudanet/finsync/pkg/api"
)

// maxBodySize ограничивает размер тела запроса
const maxBodySize = 10 << 20

const runQuerySuffix = ":runQuery"

//go:generate moq -out document_service_mock.go . DocumentService

// DocumentService определяет операции над документами пользователя
type DocumentService interface {
	Commit(ctx context.Context, uid string, req *api.CommitRequest) (*api.CommitResponse, error)
	Get(ctx context.Context, uid, name string) (*api.Document, error)
	Patch(ctx context.Context, uid, name string, fields map[string]api.Value, mask []string) (*api.Document, error)
	RunQuery(ctx context.Context, uid, parent string, req *api.RunQueryRequest) ([]api.RunQueryResponseRow, error)
}

// DocumentHandler serves the documents REST surface
type DocumentHandler struct {
	logger *slog.Logger
	docs   DocumentService
}

// NewDocumentHandler creates a new documents handler
func NewDocumentHandler(logger *slog.Logger, docs DocumentService) *DocumentHandler {
	return &DocumentHandler{
		logger: logger,
		docs:   docs,
	}
}

// Commit обрабатывает POST /projects/{project}/databases/{database}/documents:commit
func (h *DocumentHandler) Commit(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := h.databasePath(w, r); !ok {
		return
	}

	var req api.CommitRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.docs.Commit(r.Context(), uid, &req)
	if err != nil {
		h.sendError(w, "commit", err)
		return
	}

	h.logger.Debug("Commit applied", "user_id", uid, "writes", len(req.Writes))
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// Documents обрабатывает GET и PATCH документа и POST {parent}:runQuery
// под /projects/{project}/databases/{database}/documents/
func (h *DocumentHandler) Documents(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	db, ok := h.databasePath(w, r)
	if !ok {
		return
	}

	rest := strings.Trim(pathParam(r, "*"), "/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, api.StatusInvalidArgument, "document path is required")
		return
	}

	if parent, found := strings.CutSuffix(rest, runQuerySuffix); found {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, api.StatusInvalidArgument, "runQuery requires POST")
			return
		}
		h.runQuery(w, r, uid, db+"/documents/"+parent)
		return
	}

	name := db + "/documents/" + rest
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, uid, name)
	case http.MethodPatch:
		h.patch(w, r, uid, name)
	default:
		WriteError(w, http.StatusMethodNotAllowed, api.StatusInvalidArgument, "method not allowed")
	}
}

func (h *DocumentHandler) get(w http.ResponseWriter, r *http.Request, uid, name string) {
	doc, err := h.docs.Get(r.Context(), uid, name)
	if err != nil {
		h.sendError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, doc, h.logger)
}

func (h *DocumentHandler) patch(w http.ResponseWriter, r *http.Request, uid, name string) {
	var body api.Document
	if !h.decode(w, r, &body) {
		return
	}

	mask := r.URL.Query()["updateMask.fieldPaths"]
	doc, err := h.docs.Patch(r.Context(), uid, name, body.Fields, mask)
	if err != nil {
		h.sendError(w, "patch", err)
		return
	}
	writeJSON(w, http.StatusOK, doc, h.logger)
}

func (h *DocumentHandler) runQuery(w http.ResponseWriter, r *http.Request, uid, parent string) {
	var req api.RunQueryRequest
	if !h.decode(w, r, &req) {
		return
	}

	rows, err := h.docs.RunQuery(r.Context(), uid, parent, &req)
	if err != nil {
		h.sendError(w, "runQuery", err)
		return
	}
	writeJSON(w, http.StatusOK, rows, h.logger)
}

// requireUser достает uid, установленный AuthMiddleware
func (h *DocumentHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		WriteError(w, http.StatusUnauthorized, api.StatusUnauthenticated, "missing credentials")
		return "", false
	}
	return uid, true
}

// databasePath returns "projects/{project}/databases/(default)"; other
// databases do not exist
func (h *DocumentHandler) databasePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	project := pathParam(r, "project")
	if project == "" || pathParam(r, "database") != api.DefaultDatabase {
		WriteError(w, http.StatusNotFound, api.StatusNotFound, "database not found")
		return "", false
	}
	return api.DatabasePath(project), true
}

// pathParam returns the unescaped route parameter; chi matches on the raw
// path, so "(default)" may arrive as "%28default%29"
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (h *DocumentHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("Failed to decode request body", "error", err)
		WriteError(w, http.StatusBadRequest, api.StatusInvalidArgument, "invalid request body")
		return false
	}
	return true
}

// sendError переводит ошибки сервиса в статусы REST API
func (h *DocumentHandler) sendError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, documents.ErrAlreadyExists):
		WriteError(w, http.StatusConflict, api.StatusAlreadyExists, err.Error())
	case errors.Is(err, documents.ErrNotFound):
		WriteError(w, http.StatusNotFound, api.StatusNotFound, err.Error())
	case errors.Is(err, documents.ErrInvalidArgument):
		WriteError(w, http.StatusBadRequest, api.StatusInvalidArgument, err.Error())
	case errors.Is(err, documents.ErrPermissionDenied):
		h.logger.Warn("Permission denied", "op", op, "error", err)
		WriteError(w, http.StatusForbidden, api.StatusPermissionDenied, err.Error())
	default:
		h.logger.Error("Document operation failed", "op", op, "error", err)
		WriteError(w, http.StatusInternalServerError, api.StatusInternal, "internal error")
	}
}
