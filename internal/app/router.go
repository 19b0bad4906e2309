package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/linesalex/netinv/internal/audit/http"
	"github.com/linesalex/netinv/internal/auth"
	"github.com/linesalex/netinv/internal/carriers"
	"github.com/linesalex/netinv/internal/observability"
	"github.com/linesalex/netinv/internal/rbac"
	"github.com/linesalex/netinv/internal/users"
	"github.com/linesalex/netinv/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthMiddleware  auth.Middleware
	RBACMiddleware  rbac.Middleware
	AuthHandler     *auth.Handler
	RBACHandler     *rbac.Handler
	UsersHandler    *users.Handler
	CarriersHandler *carriers.Handler
	AuditHandler    *audithttp.Handler
	JobsHandler     *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with netinv defaults. Everything under
// /api/v1 except login passes through token verification; per-module guards
// are mounted by the handlers themselves.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)

			params.AuthHandler.MountProtectedRoutes(r)
			params.RBACHandler.MountRoutes(r)
			params.UsersHandler.MountRoutes(r)
			params.CarriersHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePermission("audit_logs", rbac.ActionView))
				params.AuditHandler.MountRoutes(r)
			})

			if params.JobsHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.RequireRole(rbac.RoleAdministrator))
					params.JobsHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
