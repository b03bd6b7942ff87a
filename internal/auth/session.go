package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/desertthunder/yard/internal/models"
)

const tokenBytes = 32

// Session binds an opaque token to an authenticated identity until ExpiresAt.
type Session struct {
	Token     string    `json:"-"`
	AccountID string    `json:"account_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the principal bound to the session.
func (s Session) Identity() models.Identity {
	return models.Identity{AccountID: s.AccountID, Username: s.Username}
}

// Expired reports whether the session has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists sessions keyed by token.
type SessionStore interface {
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, s Session) error
	// Get returns the live session for token or [shared.ErrSessionNotFound].
	Get(ctx context.Context, token string) (*Session, error)
	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// NewToken returns a random, URL-safe session token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
