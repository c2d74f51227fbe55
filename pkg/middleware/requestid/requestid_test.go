package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agile-crafts-people/impact-profile-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		*captured = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	engine := newRouter(&seen)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	header := w.Header().Get(RequestIDHeader)
	if header == "" {
		t.Fatal("no request id in response header")
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("generated id %q is not a uuid: %v", header, err)
	}
	if seen != header {
		t.Errorf("handler saw %q, response header %q", seen, header)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	var seen string
	engine := newRouter(&seen)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "client-supplied")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, r)

	if w.Header().Get(RequestIDHeader) != "client-supplied" {
		t.Errorf("header = %q", w.Header().Get(RequestIDHeader))
	}
	if seen != "client-supplied" {
		t.Errorf("handler saw %q", seen)
	}
}

func TestGetRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
	if got := GetRequestID(nil); got != "" {
		t.Errorf("nil context returned %q", got)
	}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("got %q, want req-1", got)
	}
}
