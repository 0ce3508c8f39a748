// Package session keeps server-side login sessions. A signed token handed to
// the client names a session; logging out deletes the session so the token
// stops working even before it expires.
package session

import (
	"context"
	"errors"
	"time"

	"metahire/models"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Session is the server-side record behind a token.
type Session struct {
	ID        string      `json:"id"`
	ProfileID string      `json:"profile_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Store persists sessions until they expire.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
