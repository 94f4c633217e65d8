// Package auth keeps the remote bearer token encrypted at rest and hands
// it to the gateway as a TokenSource once unlocked.
package auth

import (
	"context"

	"github.com/iudanet/finsync/internal/client/storage"
)

//go:generate moq -out service_mock.go . Service

// Service manages stored credentials
type Service interface {
	// Save encrypts token under passphrase and replaces stored credentials.
	// Expired or unparsable tokens are rejected.
	Save(ctx context.Context, token, passphrase string) (*Session, error)

	// Unlock decrypts the stored token. Returns storage.ErrAuthNotFound when
	// nothing is stored and ErrWrongPassphrase on a bad passphrase.
	Unlock(ctx context.Context, passphrase string) (*Session, error)

	// Info returns stored metadata without decrypting the token
	Info(ctx context.Context) (*storage.AuthData, error)

	// IsAuthenticated reports whether an unexpired token is stored
	IsAuthenticated(ctx context.Context) (bool, error)

	// Logout removes stored credentials
	Logout(ctx context.Context) error
}
