package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/linesalex/netinv/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials. Unknown handles,
// deactivated accounts and wrong passwords all collapse into the same
// error so the endpoint cannot be used as an account oracle. A storage
// failure is not a credential failure and is returned as-is.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// MarkLogin stamps the user's last successful login.
func (s *Service) MarkLogin(ctx context.Context, id int64) error {
	return s.repo.TouchLastLogin(ctx, id)
}
