package auth

import (
	"errors"
	"fmt"
	"time"

	"contabile/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, malformed and expired tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the resolved caller of a protected request.
type Identity struct {
	UserID int64
	Role   core.Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == core.RoleAdmin
}

type claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed access tokens carrying the
// user id and role claims.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user, valid for the configured TTL
// (7 days by default).
func (tm *TokenManager) Issue(user core.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	})

	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the embedded identity. Any failure
// (missing, malformed, bad signature, expired) maps to ErrInvalidToken.
func (tm *TokenManager) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrInvalidToken
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	role, err := core.ParseRole(c.Role)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: c.UserID, Role: role}, nil
}

// RequireAdmin fails with core.ErrForbidden unless the identity is an admin.
func RequireAdmin(id Identity) error {
	if !id.IsAdmin() {
		return core.ErrForbidden
	}
	return nil
}
