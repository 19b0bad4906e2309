package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/auth"
	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, params CreateParams, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// PermissionCache drops cached permission resolutions. Role changes and
// deactivations invalidate so a stale resolution never outlives the edit.
type PermissionCache interface {
	Invalidate(ctx context.Context)
}

// Service handles user management business logic. Every mutation is audited
// with before/after state; audit failures never abort the mutation.
type Service struct {
	repo   RepositoryPort
	audits *audit.Recorder
	perms  PermissionCache
}

// NewService builds a Service instance. perms may be nil.
func NewService(repo RepositoryPort, audits *audit.Recorder, perms PermissionCache) *Service {
	return &Service{repo: repo, audits: audits, perms: perms}
}

func (s *Service) invalidatePermissions(ctx context.Context) {
	if s.perms != nil {
		s.perms.Invalidate(ctx)
	}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create provisions a new account.
func (s *Service) Create(ctx context.Context, actorID int64, origin audit.Origin, params CreateParams) (User, error) {
	params.Username = strings.TrimSpace(params.Username)
	if params.Username == "" {
		return User{}, fmt.Errorf("%w: username required", httpx.ErrValidation)
	}
	if !rbac.ValidRole(params.Role) {
		return User{}, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, params, hash)
	if err != nil {
		return User{}, err
	}
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "users",
		RecordID: strconv.FormatInt(user.ID, 10),
		Action:   "CREATE",
		New:      userState(user),
		Origin:   origin,
	})
	return user, nil
}

// Update rewrites the mutable profile fields.
func (s *Service) Update(ctx context.Context, actorID int64, origin audit.Origin, id int64, params UpdateParams) (User, error) {
	if !rbac.ValidRole(params.Role) {
		return User{}, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	after, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return User{}, err
	}
	if before.Role != after.Role || before.IsActive != after.IsActive {
		s.invalidatePermissions(ctx)
	}
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "users",
		RecordID: strconv.FormatInt(id, 10),
		Action:   "UPDATE",
		Old:      userState(before),
		New:      userState(after),
		Origin:   origin,
	})
	return after, nil
}

// ResetPassword replaces the account's password digest.
func (s *Service) ResetPassword(ctx context.Context, actorID int64, origin audit.Origin, id int64, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	// The digest never enters the trail.
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "users",
		RecordID: strconv.FormatInt(id, 10),
		Action:   "PASSWORD_RESET",
		Origin:   origin,
	})
	return nil
}

// Deactivate flips the account inactive. Accounts are never hard deleted.
func (s *Service) Deactivate(ctx context.Context, actorID int64, origin audit.Origin, id int64) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidatePermissions(ctx)
	after := before
	after.IsActive = false
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "users",
		RecordID: strconv.FormatInt(id, 10),
		Action:   "DELETE",
		Old:      userState(before),
		New:      userState(after),
		Origin:   origin,
	})
	return nil
}

func userState(u User) map[string]any {
	return map[string]any{
		"username":  u.Username,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"is_active": u.IsActive,
	}
}
