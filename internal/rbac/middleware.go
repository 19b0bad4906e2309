package rbac

import (
	"log/slog"
	"net/http"

	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers. Both guards are
// side-effect free: they only gate continuation of the calling flow.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireRole ensures the current identity carries one of the allowed
// roles. A missing identity yields 401, a role outside the set 403.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission ensures the identity's role holds the given action on
// the module. Lookup failures surface as 500, never as a denial: "module
// not configured" denies, "lookup failed" errors.
func (m Middleware) RequirePermission(module string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			allowed, err := m.Service.CheckAction(r.Context(), identity.Role, module, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac permission check",
						slog.String("module", module),
						slog.String("action", string(action)),
						slog.Any("error", err),
					)
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
