package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/storage"
)

const testPassphrase = "correct horse battery"

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// mockAuthStorage хранит одну запись в памяти
type mockAuthStorage struct {
	data    *storage.AuthData
	saveErr error
}

func (m *mockAuthStorage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *auth
	m.data = &cp
	return nil
}

func (m *mockAuthStorage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if m.data == nil {
		return nil, storage.ErrAuthNotFound
	}
	cp := *m.data
	return &cp, nil
}

func (m *mockAuthStorage) DeleteAuth(ctx context.Context) error {
	if m.data == nil {
		return storage.ErrAuthNotFound
	}
	m.data = nil
	return nil
}

func signToken(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestService(st storage.AuthStorage) *service {
	s := NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	s.now = func() time.Time { return testNow }
	return s
}

func TestService_SaveAndUnlock(t *testing.T) {
	ctx := context.Background()
	st := &mockAuthStorage{}
	s := newTestService(st)

	exp := testNow.Add(time.Hour)
	token := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()})

	session, err := s.Save(ctx, token, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID())

	require.NotNil(t, st.data)
	assert.Equal(t, "user-1", st.data.UserID)
	assert.Equal(t, exp.Unix(), st.data.ExpiresAt)
	assert.Equal(t, testNow.Unix(), st.data.SavedAt)
	assert.NotContains(t, st.data.Token, token, "токен хранится зашифрованным")

	unlocked, err := s.Unlock(ctx, testPassphrase)
	require.NoError(t, err)
	got, err := unlocked.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, exp, unlocked.ExpiresAt())

	_, err = s.Unlock(ctx, "wrong passphrase!!")
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestService_SaveRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		check      func(t *testing.T, err error)
		name       string
		token      string
		passphrase string
	}{
		{
			name:       "short passphrase",
			token:      signToken(t, jwt.MapClaims{"sub": "u"}),
			passphrase: "short",
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsValidation(err))
			},
		},
		{
			name:       "garbage token",
			token:      "not-a-jwt",
			passphrase: testPassphrase,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidToken)
			},
		},
		{
			name:       "no subject",
			token:      signToken(t, jwt.MapClaims{"exp": testNow.Add(time.Hour).Unix()}),
			passphrase: testPassphrase,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidToken)
			},
		},
		{
			name:       "expired",
			token:      signToken(t, jwt.MapClaims{"sub": "u", "exp": testNow.Add(-time.Minute).Unix()}),
			passphrase: testPassphrase,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTokenExpired)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockAuthStorage{}
			_, err := newTestService(st).Save(ctx, tt.token, tt.passphrase)
			require.Error(t, err)
			tt.check(t, err)
			assert.Nil(t, st.data, "ничего не должно сохраниться")
		})
	}
}

func TestService_SaveStorageError(t *testing.T) {
	st := &mockAuthStorage{saveErr: errors.New("disk full")}
	_, err := newTestService(st).Save(context.Background(), signToken(t, jwt.MapClaims{"sub": "u"}), testPassphrase)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_UnlockNotFound(t *testing.T) {
	_, err := newTestService(&mockAuthStorage{}).Unlock(context.Background(), testPassphrase)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestService_InfoHidesCiphertext(t *testing.T) {
	ctx := context.Background()
	st := &mockAuthStorage{}
	s := newTestService(st)

	_, err := s.Save(ctx, signToken(t, jwt.MapClaims{"user_id": "user-9", "sub": "ignored"}), testPassphrase)
	require.NoError(t, err)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-9", info.UserID)
	assert.Empty(t, info.Token)
	assert.Empty(t, info.Salt)
	assert.NotEmpty(t, st.data.Token)
}

func TestService_IsAuthenticatedAndLogout(t *testing.T) {
	ctx := context.Background()
	st := &mockAuthStorage{}
	s := newTestService(st)

	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Save(ctx, signToken(t, jwt.MapClaims{"sub": "u", "exp": testNow.Add(time.Hour).Unix()}), testPassphrase)
	require.NoError(t, err)

	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// через два часа токен истек
	s.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, st.data)
	assert.ErrorIs(t, s.Logout(ctx), storage.ErrAuthNotFound)
}
