package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/server/handlers"
	"github.com/iudanet/finsync/internal/server/jwt"
	"github.com/iudanet/finsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// uidHandler echoes the uid from the context
func uidHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(uid))
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	tokens := jwt.NewService("test-secret-key", 15*time.Minute)
	token, _, err := tokens.Issue("user123")
	require.NoError(t, err)

	handler := AuthMiddleware(setupTestLogger(), tokens)(uidHandler(t))

	for _, header := range []string{"Bearer " + token, "bearer " + token} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", header)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user123", w.Body.String())
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := jwt.NewService("test-secret-key", 15*time.Minute)
	wrongSecret, _, err := jwt.NewService("other-secret", time.Minute).Issue("user123")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + wrongSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(setupTestLogger(), tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, api.StatusUnauthenticated, resp.Error.Status)
		})
	}
}
