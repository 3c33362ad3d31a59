package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository persists users and their role assignments. Implementations
// return ErrNotFound for missing users and ErrEmailTaken on a duplicate email.
type UserRepository interface {
	// Create stores the user and its role assignments atomically.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetRoles replaces the user's role assignments.
	SetRoles(ctx context.Context, userID uuid.UUID, roles []string) error

	// EnsureRoles inserts any missing role names and reports how many were
	// created. Existing roles are left untouched.
	EnsureRoles(ctx context.Context, names []string) (int, error)
	ListRoles(ctx context.Context) ([]string, error)
}
