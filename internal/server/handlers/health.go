package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	check   func(ctx context.Context) error
	version string
}

// NewHealthHandler создает новый handler для health check.
// check проверяет доступность хранилища; nil - не проверять.
func NewHealthHandler(logger *slog.Logger, version string, check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		check:   check,
		version: version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health обрабатывает GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	code := http.StatusOK
	if h.check != nil {
		if err := h.check(r.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			resp.Status = "unavailable"
			resp.Error = "storage unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, resp, h.logger)
}
