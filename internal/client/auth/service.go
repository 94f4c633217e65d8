package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/crypto"
	"github.com/iudanet/finsync/internal/validation"
)

// service шифрует токен перед сохранением и расшифровывает при чтении
type service struct {
	storage storage.AuthStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the credential service over st
func NewService(st storage.AuthStorage, logger *slog.Logger) Service {
	return &service{
		storage: st,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Save(ctx context.Context, token, passphrase string) (*Session, error) {
	if err := validation.Passphrase(passphrase); err != nil {
		return nil, err
	}

	session, err := NewSession(token)
	if err != nil {
		return nil, err
	}
	session.now = s.now
	if session.Expired() {
		return nil, ErrTokenExpired
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	sealed, err := crypto.SealString(token, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt token: %w", err)
	}

	data := &storage.AuthData{
		UserID:  session.UserID(),
		Token:   sealed,
		Salt:    base64.StdEncoding.EncodeToString(salt),
		SavedAt: s.now().Unix(),
	}
	if exp := session.ExpiresAt(); !exp.IsZero() {
		data.ExpiresAt = exp.Unix()
	}
	if err := s.storage.SaveAuth(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	s.logger.Info("Token stored",
		"user_id", data.UserID,
		"fingerprint", crypto.Fingerprint(token),
		"expires_at", session.ExpiresAt())
	return session, nil
}

func (s *service) Unlock(ctx context.Context, passphrase string) (*Session, error) {
	data, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKeyFromBase64Salt(passphrase, data.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	token, err := crypto.OpenString(data.Token, key)
	if err != nil {
		if errors.Is(err, crypto.ErrDecrypt) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	session, err := NewSession(token)
	if err != nil {
		return nil, err
	}
	session.now = s.now
	if session.UserID() != data.UserID {
		return nil, fmt.Errorf("%w: stored uid %s does not match token", ErrInvalidToken, data.UserID)
	}
	return session, nil
}

func (s *service) Info(ctx context.Context) (*storage.AuthData, error) {
	data, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, err
	}
	// шифротекст наружу не отдаем
	out := *data
	out.Token = ""
	out.Salt = ""
	return &out, nil
}

func (s *service) IsAuthenticated(ctx context.Context) (bool, error) {
	data, err := s.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return false, nil
		}
		return false, err
	}
	return !data.Expired(s.now().Unix()), nil
}

func (s *service) Logout(ctx context.Context) error {
	if err := s.storage.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local credentials: %w", err)
	}
	s.logger.Info("Credentials removed")
	return nil
}
