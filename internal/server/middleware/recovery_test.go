package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/pkg/api"
)

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		handler        http.HandlerFunc
		name           string
		expectedStatus int
		expectPanicLog bool
	}{
		{
			name: "Normal handler without panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Handler with panic (string)",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("something went wrong")
			},
			expectedStatus: http.StatusInternalServerError,
			expectPanicLog: true,
		},
		{
			name: "Handler with panic (error)",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic(errors.New("nil map write"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectPanicLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, nil))

			handler := RecoveryMiddleware(logger)(tt.handler)
			req := httptest.NewRequest(http.MethodPost, "/projects/p/databases/(default)/documents:commit", nil)
			w := httptest.NewRecorder()

			assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
			assert.Equal(t, tt.expectedStatus, w.Code)

			if !tt.expectPanicLog {
				assert.Empty(t, logBuf.String())
				return
			}

			assert.Contains(t, logBuf.String(), "Panic recovered")
			assert.Contains(t, logBuf.String(), "stack=")

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, api.StatusInternal, resp.Error.Status)
			assert.Equal(t, "internal error", resp.Error.Message)
		})
	}
}

func TestRecoveryMiddleware_RepanicsAbortHandler(t *testing.T) {
	handler := RecoveryMiddleware(setupTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
