package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    *TokenService
	audits    *audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenService, audits *audit.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		audits:    audits,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

// MountProtectedRoutes registers routes requiring a verified identity.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  shared.Identity `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password are required")
		return
	}

	origin := audit.OriginFromRequest(r)
	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		// Failed attempts have no authenticated actor; the anonymous
		// sentinel applies only to this lifecycle event, never to data
		// mutations.
		h.audits.RecordActivity(r.Context(), 0, "LOGIN_FAILED", map[string]any{
			"username":   req.Username,
			"ip":         origin.IP,
			"user_agent": origin.UserAgent,
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
		return
	}

	if err := h.service.MarkLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("mark last login", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.audits.RecordActivity(r.Context(), user.ID, "LOGIN", map[string]any{
		"username":   user.Username,
		"ip":         origin.IP,
		"user_agent": origin.UserAgent,
	})

	httpx.JSON(w, http.StatusOK, loginResponse{
		Token: token,
		User: shared.Identity{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.DisplayName(),
			Role:     user.Role,
		},
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}
