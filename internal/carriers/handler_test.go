package carriers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/rbac"
	"github.com/linesalex/netinv/internal/shared"
	_ "github.com/linesalex/netinv/testing"
)

type failingCarrierRepo struct {
	err error
}

func (r *failingCarrierRepo) List(ctx context.Context, filters ListFilters) ([]Carrier, int, error) {
	return nil, 0, r.err
}
func (r *failingCarrierRepo) Get(ctx context.Context, id int64) (Carrier, error) {
	return Carrier{}, r.err
}
func (r *failingCarrierRepo) Create(ctx context.Context, carrier Carrier) (Carrier, error) {
	return Carrier{}, r.err
}
func (r *failingCarrierRepo) Update(ctx context.Context, id int64, carrier Carrier) (Carrier, error) {
	return Carrier{}, r.err
}
func (r *failingCarrierRepo) Delete(ctx context.Context, id int64) error { return r.err }

type openRBACRepo struct{}

func (openRBACRepo) GetUserRole(ctx context.Context, userID int64) (string, error) {
	return rbac.RoleAdministrator, nil
}
func (openRBACRepo) ListRolePermissions(ctx context.Context, role string) ([]rbac.ModulePermission, error) {
	return nil, nil
}
func (openRBACRepo) GetRolePermission(ctx context.Context, role, module string) (rbac.PermissionSet, bool, error) {
	return rbac.PermissionSet{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true}, true, nil
}
func (openRBACRepo) ListVisibilityOverrides(ctx context.Context, userID int64) (map[string]bool, error) {
	return nil, nil
}
func (openRBACRepo) UpsertRolePermission(ctx context.Context, role, module string, perms rbac.PermissionSet) error {
	return nil
}
func (openRBACRepo) SetVisibilityOverride(ctx context.Context, userID int64, module string, visible bool) error {
	return nil
}

func newCarrierRouter(repo Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, audit.NewRecorder(&captureStore{}, nil))
	guard := rbac.Middleware{Service: rbac.NewService(openRBACRepo{}, nil), Logger: logger}
	router := chi.NewRouter()
	NewHandler(logger, svc, guard).MountRoutes(router)
	return router
}

func carrierRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{
		ID:       1,
		Username: "admin",
		Role:     rbac.RoleAdministrator,
	}))
}

func TestCreateCarrierStorageFailureStaysGeneric(t *testing.T) {
	router := newCarrierRouter(&failingCarrierRepo{err: errors.New("dial tcp 10.0.0.5:5432: connection refused")})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, carrierRequest(http.MethodPost, "/carriers", `{"name":"Acme"}`))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on storage failure, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "connection refused") {
		t.Fatalf("storage error leaked to client: %s", res.Body.String())
	}
}
