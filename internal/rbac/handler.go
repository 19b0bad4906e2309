package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/shared"
)

// Handler exposes permission introspection and administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audits    *audit.Recorder
	validator *validator.Validate
	guard     Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audits *audit.Recorder, guard Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		audits:    audits,
		validator: validator.New(),
		guard:     guard,
	}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions/mine", h.myPermissions)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(RoleAdministrator))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{role}/permissions", h.rolePermissions)
		r.Put("/roles/{role}/permissions/{module}", h.setRolePermission)
		r.Put("/users/{userID}/visibility/{module}", h.setVisibility)
	})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	resolution, err := h.service.ResolvePermissionsWithVisibility(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return
		}
		h.logger.Error("resolve permissions", slog.Int64("user_id", identity.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, resolution)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": Roles()})
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	matrix, err := h.service.RoleMatrix(r.Context(), role)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown role")
			return
		}
		h.logger.Error("role matrix", slog.String("role", role), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "modules": matrix})
}

type rolePermissionForm struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (h *Handler) setRolePermission(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	module := chi.URLParam(r, "module")
	var form rolePermissionForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	perms := PermissionSet{
		CanView:   form.CanView,
		CanCreate: form.CanCreate,
		CanEdit:   form.CanEdit,
		CanDelete: form.CanDelete,
	}
	previous, existed, err := h.service.SetRolePermission(r.Context(), role, module, perms)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("set role permission", slog.String("role", role), slog.String("module", module), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	var oldState map[string]any
	if existed {
		oldState = permissionState(previous)
	}
	h.audits.Record(r.Context(), audit.Change{
		ActorID:  identity.ID,
		Table:    "role_permissions",
		RecordID: role + ":" + module,
		Action:   "UPDATE",
		Old:      oldState,
		New:      permissionState(perms),
		Origin:   audit.OriginFromRequest(r),
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "module": module, "permissions": perms})
}

type visibilityForm struct {
	IsVisible *bool `json:"is_visible" validate:"required"`
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	module := chi.URLParam(r, "module")
	var form visibilityForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "is_visible is required")
		return
	}
	if err := h.service.SetModuleVisibility(r.Context(), userID, module, *form.IsVisible); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("set module visibility", slog.Int64("user_id", userID), slog.String("module", module), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	h.audits.Record(r.Context(), audit.Change{
		ActorID:  identity.ID,
		Table:    "module_visibility",
		RecordID: strconv.FormatInt(userID, 10) + ":" + module,
		Action:   "UPDATE",
		New:      map[string]any{"module": module, "is_visible": *form.IsVisible},
		Origin:   audit.OriginFromRequest(r),
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "module": module, "is_visible": *form.IsVisible})
}

func permissionState(p PermissionSet) map[string]any {
	return map[string]any{
		"can_view":   p.CanView,
		"can_create": p.CanCreate,
		"can_edit":   p.CanEdit,
		"can_delete": p.CanDelete,
	}
}
