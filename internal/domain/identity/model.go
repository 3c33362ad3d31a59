package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the built-in store. PasswordHash never leaves the
// server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenPair is the login response body.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// CreateUserInput carries the admin-facing create payload. The plaintext
// password is hashed in the service and discarded.
type CreateUserInput struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}
