package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkError_Temporary(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
	}{
		{name: "transport failure", statusCode: 0, want: true},
		{name: "timeout", statusCode: http.StatusRequestTimeout, want: true},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, want: true},
		{name: "server error", statusCode: http.StatusBadGateway, want: true},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, want: false},
		{name: "bad request", statusCode: http.StatusBadRequest, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &NetworkError{Op: "commit", StatusCode: tt.statusCode, Err: errors.New("boom")}
			assert.Equal(t, tt.want, err.Temporary())
			assert.Equal(t, tt.want, IsTemporary(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestSyncError_Unwrap(t *testing.T) {
	inner := &NetworkError{Op: "runQuery", Err: errors.New("connection reset")}
	err := &SyncError{Op: "pull", Err: inner, Pushed: 3}

	var ne *NetworkError
	assert.ErrorAs(t, err, &ne)
	assert.Equal(t, "runQuery", ne.Op)
	assert.Contains(t, err.Error(), "sync pull failed")
}

func TestIsValidation(t *testing.T) {
	err := fmt.Errorf("create: %w", NewValidationError("amount", "must be positive, got %v", -1))

	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(errors.New("plain")))
	assert.Equal(t, "validation failed: amount: must be positive, got -1", errors.Unwrap(err).Error())
}
