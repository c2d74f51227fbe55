package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func requestWithAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/platform", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func assertUnauthorized(t *testing.T, err error) *controller.AppError {
	t.Helper()
	var appErr *controller.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", appErr.HTTPStatus)
	}
	return appErr
}

func TestCreateTokenValid(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-123",
		"roles":   []string{"admin", "staff"},
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	identity, err := svc.CreateToken(requestWithAuth("Bearer " + signed))
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if identity.UserID != "user-123" {
		t.Errorf("user id = %s, want user-123", identity.UserID)
	}
	if len(identity.Roles) != 2 || identity.Roles[0] != "admin" || identity.Roles[1] != "staff" {
		t.Errorf("roles = %v, want [admin staff]", identity.Roles)
	}
}

func TestCreateTokenSubjectFallback(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "subject-9",
		"role": "viewer",
	})

	identity, err := svc.CreateToken(requestWithAuth("Bearer " + signed))
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if identity.UserID != "subject-9" {
		t.Errorf("user id = %s, want subject-9", identity.UserID)
	}
	if len(identity.Roles) != 1 || identity.Roles[0] != "viewer" {
		t.Errorf("roles = %v, want [viewer]", identity.Roles)
	}
}

func TestCreateTokenMissingHeader(t *testing.T) {
	svc := NewTokenService(testSecret)
	_, err := svc.CreateToken(requestWithAuth(""))
	appErr := assertUnauthorized(t, err)
	if appErr.Message != "missing bearer token" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestCreateTokenMalformedHeader(t *testing.T) {
	svc := NewTokenService(testSecret)
	cases := []string{
		"Bearer",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
		"token-without-scheme",
	}
	for _, header := range cases {
		_, err := svc.CreateToken(requestWithAuth(header))
		assertUnauthorized(t, err)
	}
}

func TestCreateTokenSchemeCaseInsensitive(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, testSecret, jwt.MapClaims{"user_id": "user-123"})

	if _, err := svc.CreateToken(requestWithAuth("bearer " + signed)); err != nil {
		t.Errorf("lowercase scheme rejected: %v", err)
	}
}

func TestCreateTokenBadSignature(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, "some-other-secret", jwt.MapClaims{"user_id": "user-123"})

	_, err := svc.CreateToken(requestWithAuth("Bearer " + signed))
	assertUnauthorized(t, err)
}

func TestCreateTokenExpired(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := svc.CreateToken(requestWithAuth("Bearer " + signed))
	assertUnauthorized(t, err)
}

func TestCreateTokenUnsignedRejected(t *testing.T) {
	svc := NewTokenService(testSecret)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "user-123"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	_, err = svc.CreateToken(requestWithAuth("Bearer " + signed))
	assertUnauthorized(t, err)
}

func TestCreateTokenNoIdentityClaim(t *testing.T) {
	svc := NewTokenService(testSecret)
	signed := signToken(t, testSecret, jwt.MapClaims{"roles": []string{"admin"}})

	_, err := svc.CreateToken(requestWithAuth("Bearer " + signed))
	appErr := assertUnauthorized(t, err)
	if appErr.Message != "token carries no user identity" {
		t.Errorf("message = %q", appErr.Message)
	}
}
