package rbac

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/linesalex/netinv/internal/platform/httpx"
)

// Service orchestrates permission resolution and administration.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service backed by the given repository. cache may
// be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ResolvePermissions computes the effective capability set for a user: the
// user's role is looked up, then every role_permissions row for that role.
// Modules without a row carry no permission at all (fail closed). Returns
// shared.ErrUserNotFound when the id does not resolve to an active record.
func (s *Service) ResolvePermissions(ctx context.Context, userID int64) (map[string]PermissionSet, error) {
	if perms, ok := s.cache.Get(ctx, userID); ok {
		return perms, nil
	}
	v, err, _ := s.group.Do("resolve:"+strconv.FormatInt(userID, 10), func() (any, error) {
		return s.resolve(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	perms := v.(map[string]PermissionSet)
	s.cache.Set(ctx, userID, perms)
	return perms, nil
}

func (s *Service) resolve(ctx context.Context, userID int64) (map[string]PermissionSet, error) {
	role, err := s.repo.GetUserRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRolePermissions(ctx, role)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]PermissionSet, len(rows))
	for _, row := range rows {
		perms[row.Module] = row.Perms
	}
	return perms, nil
}

// ResolvePermissionsWithVisibility returns both the permission map and the
// module visibility map. Visibility is seeded from the fixed registry (all
// visible), unioned with every permitted module, then per-user overrides
// are applied last. Visibility defaults open while action permission
// defaults closed; the asymmetry is intentional.
func (s *Service) ResolvePermissionsWithVisibility(ctx context.Context, userID int64) (Resolution, error) {
	perms, err := s.ResolvePermissions(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}

	visibility := make(map[string]bool, len(moduleRegistry)+len(perms))
	for _, module := range moduleRegistry {
		visibility[module] = true
	}
	for module := range perms {
		visibility[module] = true
	}

	overrides, err := s.repo.ListVisibilityOverrides(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}
	for module, visible := range overrides {
		visibility[module] = visible
	}

	return Resolution{Permissions: perms, Visibility: visibility}, nil
}

// CheckAction looks up the single (role, module) permission row and returns
// the bit matching the action. An absent row and an unknown action label
// both deny; storage failures are returned so callers never mistake an
// infrastructure error for a denial.
func (s *Service) CheckAction(ctx context.Context, role, module string, action Action) (bool, error) {
	perms, ok, err := s.repo.GetRolePermission(ctx, role, module)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return perms.Allows(action), nil
}

// RoleMatrix returns the full permission matrix for a role.
func (s *Service) RoleMatrix(ctx context.Context, role string) ([]ModulePermission, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	return s.repo.ListRolePermissions(ctx, role)
}

// SetRolePermission upserts the capability bits for (role, module) and
// invalidates cached resolutions. It returns the previous bits so callers
// can audit the change.
func (s *Service) SetRolePermission(ctx context.Context, role, module string, perms PermissionSet) (PermissionSet, bool, error) {
	role = strings.TrimSpace(role)
	module = strings.TrimSpace(module)
	if !ValidRole(role) {
		return PermissionSet{}, false, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	}
	if module == "" {
		return PermissionSet{}, false, fmt.Errorf("%w: module name required", httpx.ErrValidation)
	}
	previous, existed, err := s.repo.GetRolePermission(ctx, role, module)
	if err != nil {
		return PermissionSet{}, false, err
	}
	if err := s.repo.UpsertRolePermission(ctx, role, module, perms); err != nil {
		return PermissionSet{}, false, err
	}
	s.cache.Invalidate(ctx)
	return previous, existed, nil
}

// SetModuleVisibility upserts the per-user visibility override for a module
// and invalidates cached resolutions.
func (s *Service) SetModuleVisibility(ctx context.Context, userID int64, module string, visible bool) error {
	module = strings.TrimSpace(module)
	if module == "" {
		return fmt.Errorf("%w: module name required", httpx.ErrValidation)
	}
	if err := s.repo.SetVisibilityOverride(ctx, userID, module, visible); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}
