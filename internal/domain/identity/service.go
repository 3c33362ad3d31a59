package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so the
// login response does not reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLen = 8

type Service struct {
	repo   UserRepository
	issuer *auth.TokenIssuer
}

func NewService(repo UserRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Login verifies the password and issues an access/refresh token pair with
// the user's roles embedded in the access token.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.issuer.IssueAccessToken(user.ID.String(), user.Roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh redeems a refresh token for a new access token. Roles are re-read
// from the store, so revoking a role takes effect at the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	return s.issuer.IssueAccessToken(user.ID.String(), user.Roles)
}

// CreateUser hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(input.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        email,
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hash),
		Roles:        input.Roles,
	}
	if user.Username == "" {
		user.Username = email
	}
	if user.Roles == nil {
		user.Roles = []string{}
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// AssignRoles replaces the user's roles with the given set.
func (s *Service) AssignRoles(ctx context.Context, userID uuid.UUID, roles []string) (*User, error) {
	known, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	valid := make(map[string]bool, len(known))
	for _, name := range known {
		valid[name] = true
	}
	for _, role := range roles {
		if !valid[role] {
			return nil, fmt.Errorf("unknown role: %s", role)
		}
	}
	if err := s.repo.SetRoles(ctx, userID, roles); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// BootstrapRoles inserts any missing roles from the configured list. Safe to
// run repeatedly.
func (s *Service) BootstrapRoles(ctx context.Context, names []string) (int, error) {
	var clean []string
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			clean = append(clean, name)
		}
	}
	if len(clean) == 0 {
		return 0, fmt.Errorf("no role names given")
	}
	return s.repo.EnsureRoles(ctx, clean)
}
