package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/finsync/internal/client/api"
)

// EnvToken names the variable holding a static bearer token.
const EnvToken = "FINSYNC_TOKEN"

// claims covers both our own tokens (sub) and identity-provider tokens,
// which repeat the uid in user_id.
type claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Claims is what the client reads from a token without verifying it.
// Verification is the remote's job.
type Claims struct {
	ExpiresAt time.Time // zero when the token carries no exp
	UserID    string
}

// ParseClaims reads uid and exp from an unverified JWT
func ParseClaims(token string) (*Claims, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := c.UserID
	if uid == "" {
		uid = c.Subject
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	out := &Claims{UserID: uid}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.UTC()
	}
	return out, nil
}

// Session holds a decrypted token in memory and serves it to the gateway.
type Session struct {
	now    func() time.Time
	claims Claims
	token  string
}

var _ api.TokenSource = (*Session)(nil)

// NewSession parses token and wraps it
func NewSession(token string) (*Session, error) {
	c, err := ParseClaims(token)
	if err != nil {
		return nil, err
	}
	return &Session{token: token, claims: *c, now: time.Now}, nil
}

// Token returns the bearer token or ErrTokenExpired
func (s *Session) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Expired() {
		return "", fmt.Errorf("%w at %s", ErrTokenExpired, s.claims.ExpiresAt.Format(time.RFC3339))
	}
	return s.token, nil
}

// UserID returns the uid the token was issued to
func (s *Session) UserID() string {
	return s.claims.UserID
}

// ExpiresAt returns the token exp, zero when absent
func (s *Session) ExpiresAt() time.Time {
	return s.claims.ExpiresAt
}

// Expired reports whether exp is at or before now
func (s *Session) Expired() bool {
	exp := s.claims.ExpiresAt
	return !exp.IsZero() && !s.now().Before(exp)
}
