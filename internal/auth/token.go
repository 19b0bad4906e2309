package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/linesalex/netinv/internal/shared"
)

// ErrInvalidToken is returned for any verification failure: bad signature,
// malformed payload, or expiry. Callers must not distinguish between them.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the payload embedded in issued tokens. It is a point-in-time
// snapshot: a role change or deactivation does not invalidate tokens issued
// before it, until their natural expiry.
type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the request-scoped identity record.
func (c *Claims) Identity() *shared.Identity {
	return &shared.Identity{
		ID:       c.ID,
		Username: c.Username,
		FullName: c.FullName,
		Role:     c.Role,
	}
}

// TokenService issues and verifies signed HMAC-SHA256 bearer tokens.
// The signing key is established once at startup and never rotated
// mid-process.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService with the given signing key and
// validity window.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue embeds the user's id, handle, display name and role in a signed
// token valid for the configured window.
func (s *TokenService) Issue(user *User) (string, error) {
	if user == nil {
		return "", errors.New("auth: issue token: nil user")
	}
	now := s.now()
	claims := &Claims{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.DisplayName(),
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry of raw and returns the embedded
// claims verbatim. It does not consult storage: claims reflect the state at
// issue time.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
