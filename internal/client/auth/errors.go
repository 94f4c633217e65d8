package auth

import "errors"

var (
	// ErrTokenExpired means the bearer token exp has passed
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken means the token is not a readable JWT or lacks a user
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongPassphrase means the stored token could not be decrypted
	ErrWrongPassphrase = errors.New("wrong passphrase")
)
