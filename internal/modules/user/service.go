package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, role string) ([]*User, error)
	UpdateUser(ctx context.Context, actorID, targetID string, req AdminUpdateRequest) (*User, error)
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AdminUpdateRequest is the admin PATCH payload. Nil fields are untouched.
type AdminUpdateRequest struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
