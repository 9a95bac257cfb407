package user

import (
	"context"

	"github.com/sokoplace/soko-backend/internal/policy"
)

// Repository defines the interface for user data storage.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, role string) ([]*User, error)
	UpdateRole(ctx context.Context, id string, role policy.Role) error
	SetActive(ctx context.Context, id string, active bool) error
}
