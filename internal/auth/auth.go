// Package auth resolves bearer credentials to user identities via the
// external auth collaborator.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Credential errors. A missing Authorization header is distinct from a
// token the auth service rejects; the boundary maps them to different
// 401 bodies.
var (
	ErrMissingCredential = errors.New("no authorization header")
	ErrInvalidCredential = errors.New("invalid token")
)

// Verifier maps a bearer token to a user ID.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an Authorization header value.
// An absent or non-Bearer header yields ErrMissingCredential.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
