package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linesalex/netinv/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetUserRole returns the role of an active user.
func (r *PGRepository) GetUserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 AND is_active`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrUserNotFound
		}
		return "", err
	}
	return role, nil
}

// ListRolePermissions returns all permission rows for a role.
func (r *PGRepository) ListRolePermissions(ctx context.Context, role string) ([]ModulePermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT module_name, can_view, can_create, can_edit, can_delete
		FROM role_permissions WHERE role_name = $1 ORDER BY module_name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []ModulePermission
	for rows.Next() {
		var mp ModulePermission
		if err := rows.Scan(&mp.Module, &mp.Perms.CanView, &mp.Perms.CanCreate, &mp.Perms.CanEdit, &mp.Perms.CanDelete); err != nil {
			return nil, err
		}
		perms = append(perms, mp)
	}
	return perms, rows.Err()
}

// GetRolePermission returns the single row for (role, module).
func (r *PGRepository) GetRolePermission(ctx context.Context, role, module string) (PermissionSet, bool, error) {
	var ps PermissionSet
	err := r.pool.QueryRow(ctx, `
		SELECT can_view, can_create, can_edit, can_delete
		FROM role_permissions WHERE role_name = $1 AND module_name = $2`, role, module).
		Scan(&ps.CanView, &ps.CanCreate, &ps.CanEdit, &ps.CanDelete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PermissionSet{}, false, nil
		}
		return PermissionSet{}, false, err
	}
	return ps, true, nil
}

// ListVisibilityOverrides returns the per-user visibility rows.
func (r *PGRepository) ListVisibilityOverrides(ctx context.Context, userID int64) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT module_name, is_visible FROM module_visibility WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	overrides := make(map[string]bool)
	for rows.Next() {
		var module string
		var visible bool
		if err := rows.Scan(&module, &visible); err != nil {
			return nil, err
		}
		overrides[module] = visible
	}
	return overrides, rows.Err()
}

// UpsertRolePermission writes the (role, module) row. The unique constraint
// on (role_name, module_name) keeps at most one row per pair.
func (r *PGRepository) UpsertRolePermission(ctx context.Context, role, module string, perms PermissionSet) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_name, module_name, can_view, can_create, can_edit, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (role_name, module_name)
		DO UPDATE SET can_view = $3, can_create = $4, can_edit = $5, can_delete = $6`,
		role, module, perms.CanView, perms.CanCreate, perms.CanEdit, perms.CanDelete)
	return err
}

// SetVisibilityOverride writes the per-user override for a module.
func (r *PGRepository) SetVisibilityOverride(ctx context.Context, userID int64, module string, visible bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO module_visibility (user_id, module_name, is_visible)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, module_name) DO UPDATE SET is_visible = $3`,
		userID, module, visible)
	return err
}

var _ Repository = (*PGRepository)(nil)
