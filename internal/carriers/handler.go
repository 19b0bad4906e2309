package carriers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/rbac"
	"github.com/linesalex/netinv/internal/shared"
)

const moduleName = "carriers"

// Handler manages carrier endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers carrier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/carriers", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequirePermission(moduleName, rbac.ActionView))
			r.Get("/", h.list)
			r.Get("/{id}", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequirePermission(moduleName, rbac.ActionCreate))
			r.Post("/", h.create)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequirePermission(moduleName, rbac.ActionEdit))
			r.Put("/{id}", h.update)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequirePermission(moduleName, rbac.ActionDelete))
			r.Delete("/{id}", h.delete)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{Search: q.Get("search")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 25
	}
	carriers, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list carriers", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"carriers": carriers, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid carrier id")
		return
	}
	carrier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get carrier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, carrier)
}

type carrierForm struct {
	Name         string `json:"name" validate:"required"`
	Region       string `json:"region"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (f carrierForm) toCarrier() Carrier {
	status := f.Status
	if status == "" {
		status = "active"
	}
	return Carrier{
		Name:         f.Name,
		Region:       f.Region,
		ContactName:  f.ContactName,
		ContactEmail: f.ContactEmail,
		Phone:        f.Phone,
		Status:       status,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	carrier, err := h.service.Create(r.Context(), identity.ID, audit.OriginFromRequest(r), form.toCarrier())
	if err != nil {
		h.respondError(w, "create carrier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, carrier)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid carrier id")
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	carrier, err := h.service.Update(r.Context(), identity.ID, audit.OriginFromRequest(r), id, form.toCarrier())
	if err != nil {
		h.respondError(w, "update carrier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, carrier)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid carrier id")
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity.ID, audit.OriginFromRequest(r), id); err != nil {
		h.respondError(w, "delete carrier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (carrierForm, bool) {
	var form carrierForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "carrier not found")
	case errors.Is(err, httpx.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "carrier name already exists")
	case errors.Is(err, httpx.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
