package auth

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/agile-crafts-people/impact-profile-api/pkg/middleware"
	"github.com/google/uuid"
)

// Breadcrumb is the audit record stamped on documents at write time.
// It is stored verbatim under the "created" and "saved" fields.
type Breadcrumb struct {
	AtTime        time.Time `bson:"at_time" json:"at_time"`
	ByUser        string    `bson:"by_user" json:"by_user"`
	FromIP        string    `bson:"from_ip" json:"from_ip"`
	CorrelationID string    `bson:"correlation_id" json:"correlation_id"`
}

// CreateBreadcrumb builds the audit breadcrumb for one request. The
// correlation id reuses the request id when the requestid middleware has
// run, so audit records line up with request logs.
func CreateBreadcrumb(r *http.Request, identity *Identity) Breadcrumb {
	correlationID := ""
	if id, ok := r.Context().Value(middleware.RequestIDKey).(string); ok {
		correlationID = id
	}
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	byUser := ""
	if identity != nil {
		byUser = identity.UserID
	}

	return Breadcrumb{
		AtTime:        time.Now().UTC(),
		ByUser:        byUser,
		FromIP:        clientIP(r),
		CorrelationID: correlationID,
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// transport peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
