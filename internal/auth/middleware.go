package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/shared"
)

// Middleware verifies bearer tokens and attaches the decoded identity to
// the request context. Requests without an Authorization header continue
// unauthenticated; the authorization guards reject them later. A header
// that fails verification is rejected immediately with the same external
// signal regardless of why it failed.
type Middleware struct {
	Tokens *TokenService
}

// Authenticate is the token verification middleware.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, err := ParseBearerToken(header)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		claims, err := m.Tokens.Verify(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseBearerToken extracts the token from an Authorization header value.
func ParseBearerToken(header string) (string, error) {
	parts := strings.Fields(strings.TrimSpace(header))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("auth: invalid authorization header")
	}
	return parts[1], nil
}
