package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user User) (User, error)
}

// Role enumerates user roles.
type Role string

const (
	// RoleUser is assigned to every user on signup.
	RoleUser Role = "USER"
	// RoleAdmin grants administrative access.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a stored user with a hashed password.
type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile is the public projection of a user.
type UserProfile struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

// Identity is an authenticated principal resolved from an access token.
type Identity struct {
	Email string
	Role  Role
}
