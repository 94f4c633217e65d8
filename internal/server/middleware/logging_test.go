package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{"ok", http.StatusOK, "level=INFO"},
		{"conflict", http.StatusConflict, "level=WARN"},
		{"internal error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			req := httptest.NewRequest(http.MethodPost, "/projects/p/databases/(default)/documents:commit", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			req.Header.Set("User-Agent", "TestAgent/1.0")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)

			out := logBuf.String()
			assert.Contains(t, out, tt.expectedLevel)
			assert.Contains(t, out, "method=POST")
			assert.Contains(t, out, "documents:commit")
			assert.Contains(t, out, fmt.Sprintf("status=%d", tt.status))
			assert.Contains(t, out, "bytes_written=4")
			assert.Contains(t, out, "user_agent=TestAgent/1.0")
		})
	}
}

func TestRequestPath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no query", "/health", "/health"},
		{"plain query", "/docs/x?updateMask.fieldPaths=a", "/docs/x?updateMask.fieldPaths=a"},
		{"api key masked", "/docs/x?key=SECRET&b=1", "/docs/x?b=1&key=%2A%2A%2A"},
		{"access token masked", "/docs/x?access_token=SECRET", "/docs/x?access_token=%2A%2A%2A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)

			got := requestPath(u)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "SECRET")
		})
	}
}

func TestLoggingWithSkip(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := LoggingWithSkip(logger, []string{"/health"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, logBuf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Contains(t, logBuf.String(), "path=/other")
}

func TestResponseWriter_Captures(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = rw.Write([]byte(" world"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, int64(11), rw.written)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
