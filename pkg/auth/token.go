// Package auth resolves caller identity from bearer tokens, builds audit
// breadcrumbs, and hosts the authorization policy seam.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved caller identity attached to every operation.
type Identity struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// TokenService validates bearer tokens and extracts the caller identity.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService validating HS256 tokens signed
// with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// CreateToken resolves the caller identity from the request's
// Authorization header. Missing, malformed, expired, or badly signed
// tokens produce an unauthorized error.
func (s *TokenService) CreateToken(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, controller.NewUnauthorizedError("missing bearer token")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, controller.NewUnauthorizedError("authorization header must be 'Bearer <token>'")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, controller.NewUnauthorizedError("invalid bearer token")
	}

	userID := extractStringClaim(claims, "user_id", "sub")
	if userID == "" {
		return nil, controller.NewUnauthorizedError("token carries no user identity")
	}

	return &Identity{
		UserID: userID,
		Roles:  extractRoles(claims),
	}, nil
}

// extractStringClaim returns the first non-empty string claim among the
// given aliases.
func extractStringClaim(claims jwt.MapClaims, aliases ...string) string {
	for _, alias := range aliases {
		if value, ok := claims[alias].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// extractRoles collects roles from the "roles" or "role" claims, either
// a string array or a single string.
func extractRoles(claims jwt.MapClaims) []string {
	for _, alias := range []string{"roles", "role"} {
		switch value := claims[alias].(type) {
		case []interface{}:
			roles := make([]string, 0, len(value))
			for _, entry := range value {
				if role, ok := entry.(string); ok && role != "" {
					roles = append(roles, role)
				}
			}
			if len(roles) > 0 {
				return roles
			}
		case string:
			if value != "" {
				return []string{value}
			}
		}
	}
	return nil
}
