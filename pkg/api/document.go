package api

import (
	"strings"
	"time"
)

// Имена коллекций удалённого хранилища
const (
	CollectionEvents       = "events"
	CollectionAccounts     = "accounts"
	CollectionCategories   = "categories"
	CollectionBudgets      = "budgets"
	CollectionTransactions = "transactions"
	CollectionDevices      = "devices"
	CollectionSyncState    = "syncState"
	CollectionUsers        = "users"

	// FieldName is the pseudo field addressing the document path in orderBy and cursors.
	FieldName = "__name__"

	// DefaultDatabase is the only database id clients use.
	DefaultDatabase = "(default)"
)

// Поля документа события
const (
	EventFieldType          = "type"
	EventFieldEntityID      = "entityId"
	EventFieldOriginDevice  = "originDeviceId"
	EventFieldSchemaVersion = "schemaVersion"
	EventFieldPayload       = "payload"
	EventFieldCreatedAt     = "createdAt"

	// EventSchemaVersion is stamped on every event written by this client.
	EventSchemaVersion = 1
)

// Document is a stored document: its full resource name plus typed fields.
type Document struct {
	Fields     map[string]Value `json:"fields,omitempty"`
	Name       string           `json:"name,omitempty"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID returns the last path segment of the document name.
func (d Document) ID() string {
	return LastSegment(d.Name)
}

// LastSegment returns the part of a slash separated path after the last slash.
func LastSegment(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DatabasePath returns "projects/{project}/databases/(default)".
func DatabasePath(project string) string {
	return "projects/" + project + "/databases/" + DefaultDatabase
}

// DocumentsPath returns the root under which every document name lives.
func DocumentsPath(project string) string {
	return DatabasePath(project) + "/documents"
}

// UserDocumentPath returns the name of a document in a per-user sub-collection.
func UserDocumentPath(project, uid, collection, id string) string {
	return DocumentsPath(project) + "/" + CollectionUsers + "/" + uid + "/" + collection + "/" + id
}

// Precondition restricts a write to the current state of the document.
type Precondition struct {
	Exists *bool `json:"exists,omitempty"`
}

// Write is one mutation in a commit.
type Write struct {
	Update          *Document     `json:"update,omitempty"`
	CurrentDocument *Precondition `json:"currentDocument,omitempty"`
	Delete          string        `json:"delete,omitempty"`
}

// CommitRequest applies a batch of writes atomically.
type CommitRequest struct {
	Writes []Write `json:"writes"`
}

// WriteResult describes one applied write.
type WriteResult struct {
	UpdateTime string `json:"updateTime,omitempty"`
}

// CommitResponse is returned by documents:commit.
type CommitResponse struct {
	CommitTime   string        `json:"commitTime,omitempty"`
	WriteResults []WriteResult `json:"writeResults,omitempty"`
}

// ErrorStatus is the body of a failed call.
type ErrorStatus struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
}

// ErrorResponse wraps ErrorStatus like the REST API does.
type ErrorResponse struct {
	Error ErrorStatus `json:"error"`
}

// Коды статуса ошибок
const (
	StatusAlreadyExists      = "ALREADY_EXISTS"
	StatusFailedPrecondition = "FAILED_PRECONDITION"
	StatusNotFound           = "NOT_FOUND"
	StatusInvalidArgument    = "INVALID_ARGUMENT"
	StatusUnauthenticated    = "UNAUTHENTICATED"
	StatusPermissionDenied   = "PERMISSION_DENIED"
	StatusResourceExhausted  = "RESOURCE_EXHAUSTED"
	StatusInternal           = "INTERNAL"
)

// FormatTimestamp renders t as the RFC 3339 UTC form used in timestampValue.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a timestampValue.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
