package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/finsync/pkg/api"
)

// WriteError sends the REST error envelope {"error": {code, message, status}}
func WriteError(w http.ResponseWriter, code int, status, message string) {
	writeJSON(w, code, api.ErrorResponse{Error: api.ErrorStatus{
		Code:    code,
		Message: message,
		Status:  status,
	}}, nil)
}

func writeJSON(w http.ResponseWriter, code int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
