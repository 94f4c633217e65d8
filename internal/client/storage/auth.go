package storage

import (
	"context"
)

// AuthStorage хранит учетные данные клиента как есть: токен уже
// зашифрован слоем auth, хранилище само ничего не шифрует.
type AuthStorage interface {
	// SaveAuth replaces the stored credentials
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns ErrAuthNotFound when nothing is stored
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored credentials
	DeleteAuth(ctx context.Context) error
}

// AuthData is the persisted credential record. Token holds base64
// AES-GCM ciphertext, Salt the base64 Argon2id salt for its key.
// ExpiresAt is the token exp in unix seconds, 0 when the token has none.
type AuthData struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	Salt      string `json:"salt"`
	ExpiresAt int64  `json:"expires_at"`
	SavedAt   int64  `json:"saved_at"`
}

// Expired reports whether the token exp is at or before now (unix seconds).
func (a *AuthData) Expired(now int64) bool {
	return a.ExpiresAt != 0 && now >= a.ExpiresAt
}
