// Package jwt issues and validates the HS256 bearer tokens accepted by the
// emulator. The uid travels in both sub and user_id, the way identity
// provider tokens carry it.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token.
const Issuer = "finsync-emulator"

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service provides JWT token generation and validation
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewService creates a new JWT service. ttl <= 0 issues tokens without exp.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for uid and returns it with its expiry (zero without exp)
func (s *Service) Issue(uid string) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty uid", ErrInvalidToken)
	}

	now := s.now()
	claims := Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate checks signature, algorithm and time claims and returns the uid
func (s *Service) Validate(tokenString string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := claims.Subject
	if uid == "" {
		uid = claims.UserID
	}
	if uid == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return uid, nil
}
