package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	users    user.Repository
	resolver *identity.Resolver
	tokenTTL time.Duration
}

// NewService creates a new auth service.
func NewService(users user.Repository, resolver *identity.Resolver, tokenTTL time.Duration) Service {
	return &service{users: users, resolver: resolver, tokenTTL: tokenTTL}
}

func invalidCredentials() error {
	return httpx.Validation("INVALID_CREDENTIALS", "email or password is incorrect")
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalidCredentials()
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a hash compare so unknown emails take as long as wrong
			// passwords.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, httpx.Forbidden("ACCOUNT_DISABLED", "this account has been deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	token, err := s.resolver.IssueToken(u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		User:      u,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}, nil
}
