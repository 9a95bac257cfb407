package auth

import (
	"context"
	"time"

	"github.com/sokoplace/soko-backend/internal/modules/user"
)

// Service defines the interface for authentication business logic.
type Service interface {
	// Login checks credentials and issues a signed session token. The error
	// is the same INVALID_CREDENTIALS for an unknown email and a wrong
	// password.
	Login(ctx context.Context, req LoginRequest) (*Session, error)
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a freshly issued login session.
type Session struct {
	Token     string     `json:"-"`
	User      *user.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}
