package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaims(t *testing.T) {
	exp := testNow.Add(time.Hour)

	c, err := ParseClaims(signToken(t, jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()}))
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, exp, c.ExpiresAt)

	// user_id приоритетнее sub
	c, err = ParseClaims(signToken(t, jwt.MapClaims{"sub": "s", "user_id": "u"}))
	require.NoError(t, err)
	assert.Equal(t, "u", c.UserID)
	assert.True(t, c.ExpiresAt.IsZero())

	_, err = ParseClaims("a.b")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession_Token(t *testing.T) {
	ctx := context.Background()
	token := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": testNow.Add(time.Minute).Unix()})

	s, err := NewSession(token)
	require.NoError(t, err)
	s.now = func() time.Time { return testNow }

	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.False(t, s.Expired())

	// ровно в момент exp токен уже недействителен
	s.now = func() time.Time { return testNow.Add(time.Minute) }
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, s.Expired())
}

func TestSession_NoExpiry(t *testing.T) {
	s, err := NewSession(signToken(t, jwt.MapClaims{"sub": "user-1"}))
	require.NoError(t, err)
	s.now = func() time.Time { return testNow.AddDate(50, 0, 0) }

	_, err = s.Token(context.Background())
	assert.NoError(t, err)
}

func TestSession_CancelledContext(t *testing.T) {
	s, err := NewSession(signToken(t, jwt.MapClaims{"sub": "user-1"}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
