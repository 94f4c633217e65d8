package documents

import "errors"

// Ошибки сервиса документов; обработчики переводят их в статусы REST API
var (
	ErrAlreadyExists    = errors.New("document already exists")
	ErrNotFound         = errors.New("document not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrPermissionDenied = errors.New("permission denied")
)
