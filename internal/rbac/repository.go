package rbac

import "context"

// Repository defines the storage operations the resolver depends on. The
// multi-step resolution (role lookup, then permissions, then visibility) is
// deliberately not transactional: a role change concurrent with a resolution
// may yield a consistent-but-stale read, which is accepted.
type Repository interface {
	// GetUserRole returns the role of an active user, or
	// shared.ErrUserNotFound when the id is absent or deactivated.
	GetUserRole(ctx context.Context, userID int64) (string, error)
	// ListRolePermissions returns every permission row for a role.
	ListRolePermissions(ctx context.Context, role string) ([]ModulePermission, error)
	// GetRolePermission returns the single row for (role, module). The bool
	// reports whether the row exists; absence means no permission.
	GetRolePermission(ctx context.Context, role, module string) (PermissionSet, bool, error)
	// ListVisibilityOverrides returns the per-user module visibility rows.
	ListVisibilityOverrides(ctx context.Context, userID int64) (map[string]bool, error)
	// UpsertRolePermission writes the (role, module) row, keeping at most
	// one row per pair.
	UpsertRolePermission(ctx context.Context, role, module string, perms PermissionSet) error
	// SetVisibilityOverride writes the per-user override for a module.
	SetVisibilityOverride(ctx context.Context, userID int64, module string, visible bool) error
}
