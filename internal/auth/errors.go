package auth

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed and unverifiable
	// credentials alike. Handlers surface it as access denied and never
	// distinguish the cause to the caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is authenticated but the role or
	// ownership policy rejects the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidToken indicates a tampered token or one signed under a
	// different key.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token is past its TTL.
	ErrTokenExpired = errors.New("token expired")

	// ErrChallengeMismatch covers every challenge failure mode: wrong
	// answer, malformed token, bad signature, expired challenge.
	ErrChallengeMismatch = errors.New("challenge verification failed")

	// ErrConflict signals a uniqueness violation, e.g. a duplicate email.
	ErrConflict = errors.New("already exists")

	// ErrNotFound signals a missing identity.
	ErrNotFound = errors.New("identity not found")
)
