package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agile-crafts-people/impact-profile-api/pkg/middleware"
	"github.com/google/uuid"
)

func TestCreateBreadcrumb(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/platform", nil)
	r.RemoteAddr = "192.0.2.10:54321"
	ctx := context.WithValue(r.Context(), middleware.RequestIDKey, "req-42")
	r = r.WithContext(ctx)

	before := time.Now().UTC()
	crumb := CreateBreadcrumb(r, &Identity{UserID: "user-123"})
	after := time.Now().UTC()

	if crumb.ByUser != "user-123" {
		t.Errorf("by_user = %s, want user-123", crumb.ByUser)
	}
	if crumb.FromIP != "192.0.2.10" {
		t.Errorf("from_ip = %s, want 192.0.2.10", crumb.FromIP)
	}
	if crumb.CorrelationID != "req-42" {
		t.Errorf("correlation_id = %s, want req-42", crumb.CorrelationID)
	}
	if crumb.AtTime.Before(before) || crumb.AtTime.After(after) {
		t.Errorf("at_time %v outside [%v, %v]", crumb.AtTime, before, after)
	}
}

func TestCreateBreadcrumbGeneratesCorrelationID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/platform", nil)

	crumb := CreateBreadcrumb(r, &Identity{UserID: "user-123"})
	if _, err := uuid.Parse(crumb.CorrelationID); err != nil {
		t.Errorf("correlation_id %q is not a uuid: %v", crumb.CorrelationID, err)
	}
}

func TestCreateBreadcrumbForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/platform", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	crumb := CreateBreadcrumb(r, &Identity{UserID: "user-123"})
	if crumb.FromIP != "203.0.113.7" {
		t.Errorf("from_ip = %s, want first forwarded hop", crumb.FromIP)
	}
}

func TestCreateBreadcrumbNilIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/platform", nil)

	crumb := CreateBreadcrumb(r, nil)
	if crumb.ByUser != "" {
		t.Errorf("by_user = %q, want empty", crumb.ByUser)
	}
}

func TestAllowAuthenticated(t *testing.T) {
	policy := AllowAuthenticated{}

	if err := policy.Authorize(&Identity{UserID: "user-123"}, OperationCreate, "platform"); err != nil {
		t.Errorf("authenticated identity rejected: %v", err)
	}
	if err := policy.Authorize(nil, OperationRead, "platform"); err == nil {
		t.Error("nil identity accepted")
	}
	if err := policy.Authorize(&Identity{}, OperationUpdate, "user"); err == nil {
		t.Error("empty identity accepted")
	}
}
