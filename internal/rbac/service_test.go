package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/linesalex/netinv/internal/shared"
)

type stubRBACRepo struct {
	roles       map[int64]string
	rolePerms   map[string]map[string]PermissionSet
	visibility  map[int64]map[string]bool
	permErr     error
	upsertErr   error
	roleCalls   int
	upserts     int
	visUpserts  int
	lastUpsert  PermissionSet
	lastVisible bool
}

func newStubRBACRepo() *stubRBACRepo {
	return &stubRBACRepo{
		roles:      make(map[int64]string),
		rolePerms:  make(map[string]map[string]PermissionSet),
		visibility: make(map[int64]map[string]bool),
	}
}

func (s *stubRBACRepo) GetUserRole(ctx context.Context, userID int64) (string, error) {
	s.roleCalls++
	role, ok := s.roles[userID]
	if !ok {
		return "", shared.ErrUserNotFound
	}
	return role, nil
}

func (s *stubRBACRepo) ListRolePermissions(ctx context.Context, role string) ([]ModulePermission, error) {
	rows := make([]ModulePermission, 0, len(s.rolePerms[role]))
	for module, perms := range s.rolePerms[role] {
		rows = append(rows, ModulePermission{Module: module, Perms: perms})
	}
	return rows, nil
}

func (s *stubRBACRepo) GetRolePermission(ctx context.Context, role, module string) (PermissionSet, bool, error) {
	if s.permErr != nil {
		return PermissionSet{}, false, s.permErr
	}
	perms, ok := s.rolePerms[role][module]
	return perms, ok, nil
}

func (s *stubRBACRepo) ListVisibilityOverrides(ctx context.Context, userID int64) (map[string]bool, error) {
	return s.visibility[userID], nil
}

func (s *stubRBACRepo) UpsertRolePermission(ctx context.Context, role, module string, perms PermissionSet) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.rolePerms[role] == nil {
		s.rolePerms[role] = make(map[string]PermissionSet)
	}
	s.rolePerms[role][module] = perms
	s.upserts++
	s.lastUpsert = perms
	return nil
}

func (s *stubRBACRepo) SetVisibilityOverride(ctx context.Context, userID int64, module string, visible bool) error {
	if s.visibility[userID] == nil {
		s.visibility[userID] = make(map[string]bool)
	}
	s.visibility[userID][module] = visible
	s.visUpserts++
	s.lastVisible = visible
	return nil
}

func TestCheckActionFailsClosed(t *testing.T) {
	repo := newStubRBACRepo()
	repo.rolePerms[RoleProvisioner] = map[string]PermissionSet{
		"carriers": {CanView: true, CanCreate: true, CanEdit: true},
	}
	svc := NewService(repo, nil)
	ctx := context.Background()

	allowed, err := svc.CheckAction(ctx, RoleProvisioner, "carriers", ActionCreate)
	if err != nil || !allowed {
		t.Fatalf("expected create allowed, got %v %v", allowed, err)
	}
	allowed, err = svc.CheckAction(ctx, RoleProvisioner, "carriers", ActionDelete)
	if err != nil || allowed {
		t.Fatalf("expected delete denied, got %v %v", allowed, err)
	}
	// No row for the module at all.
	allowed, err = svc.CheckAction(ctx, RoleProvisioner, "network_routes", ActionView)
	if err != nil || allowed {
		t.Fatalf("expected missing row to deny, got %v %v", allowed, err)
	}
	// Unknown action label.
	allowed, err = svc.CheckAction(ctx, RoleProvisioner, "carriers", Action("approve"))
	if err != nil || allowed {
		t.Fatalf("expected unknown action to deny, got %v %v", allowed, err)
	}
}

func TestCheckActionSurfacesStorageErrors(t *testing.T) {
	repo := newStubRBACRepo()
	repo.permErr = errors.New("connection refused")
	svc := NewService(repo, nil)

	allowed, err := svc.CheckAction(context.Background(), RoleReadOnly, "carriers", ActionView)
	if err == nil {
		t.Fatalf("expected storage error to surface")
	}
	if allowed {
		t.Fatalf("storage error must never allow")
	}
}

func TestResolvePermissionsUnknownUser(t *testing.T) {
	svc := NewService(newStubRBACRepo(), nil)
	_, err := svc.ResolvePermissions(context.Background(), 99)
	if !errors.Is(err, shared.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolvePermissionsWithVisibility(t *testing.T) {
	repo := newStubRBACRepo()
	repo.roles[42] = RoleReadOnly
	repo.rolePerms[RoleReadOnly] = map[string]PermissionSet{
		"carriers":     {CanView: true},
		"legacy_tools": {CanView: true},
	}
	repo.visibility[42] = map[string]bool{"carriers": false}
	svc := NewService(repo, nil)

	res, err := svc.ResolvePermissionsWithVisibility(context.Background(), 42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Every registry module defaults visible.
	for _, module := range ModuleRegistry() {
		if module == "carriers" {
			continue
		}
		if !res.Visibility[module] {
			t.Fatalf("expected %s visible by default", module)
		}
	}
	// Permitted modules outside the registry are unioned in.
	if !res.Visibility["legacy_tools"] {
		t.Fatalf("expected permitted module visible")
	}
	// Per-user override wins last.
	if res.Visibility["carriers"] {
		t.Fatalf("expected override to hide carriers")
	}
	// Hidden module keeps its permission bits.
	if !res.Permissions["carriers"].CanView {
		t.Fatalf("visibility must not strip permissions")
	}
}

func TestResolvePermissionsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	repo := newStubRBACRepo()
	repo.roles[7] = RoleProvisioner
	repo.rolePerms[RoleProvisioner] = map[string]PermissionSet{"carriers": {CanView: true, CanEdit: true}}
	svc := NewService(repo, cache)
	ctx := context.Background()

	if _, err := svc.ResolvePermissions(ctx, 7); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := svc.ResolvePermissions(ctx, 7); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if repo.roleCalls != 1 {
		t.Fatalf("expected cached second resolve, role lookups=%d", repo.roleCalls)
	}

	// A permission write bumps the version and forces a re-read.
	if _, _, err := svc.SetRolePermission(ctx, RoleProvisioner, "carriers", PermissionSet{CanView: true}); err != nil {
		t.Fatalf("set permission: %v", err)
	}
	if _, err := svc.ResolvePermissions(ctx, 7); err != nil {
		t.Fatalf("post-invalidate resolve: %v", err)
	}
	if repo.roleCalls != 2 {
		t.Fatalf("expected invalidation to force re-resolution, role lookups=%d", repo.roleCalls)
	}
}

func TestSetRolePermissionValidatesAndReturnsPrevious(t *testing.T) {
	repo := newStubRBACRepo()
	repo.rolePerms[RoleProvisioner] = map[string]PermissionSet{"carriers": {CanView: true}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, _, err := svc.SetRolePermission(ctx, "superuser", "carriers", PermissionSet{}); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
	if _, _, err := svc.SetRolePermission(ctx, RoleProvisioner, "  ", PermissionSet{}); err == nil {
		t.Fatalf("expected blank module to be rejected")
	}

	previous, existed, err := svc.SetRolePermission(ctx, RoleProvisioner, "carriers", PermissionSet{CanView: true, CanEdit: true})
	if err != nil {
		t.Fatalf("set permission: %v", err)
	}
	if !existed || !previous.CanView || previous.CanEdit {
		t.Fatalf("expected previous bits {view}, got existed=%v %+v", existed, previous)
	}

	_, existed, err = svc.SetRolePermission(ctx, RoleProvisioner, "locations", PermissionSet{CanView: true})
	if err != nil {
		t.Fatalf("set permission: %v", err)
	}
	if existed {
		t.Fatalf("expected fresh row for locations")
	}
}
