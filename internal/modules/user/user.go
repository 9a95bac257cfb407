package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/policy"
)

// User represents a marketplace account. Buyers, vendors and admins share
// one table, distinguished by role.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name,omitempty"`
	LastName     string      `json:"last_name,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Role         policy.Role `json:"role"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
