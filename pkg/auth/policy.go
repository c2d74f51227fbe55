package auth

import (
	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
)

// Operation names the kind of access a caller is requesting.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
)

// Policy decides whether an identity may perform an operation on a
// resource kind. The service layer consults it before every operation,
// so a role-based implementation can be swapped in without touching
// call sites.
type Policy interface {
	Authorize(identity *Identity, operation Operation, resource string) error
}

// AllowAuthenticated permits every operation for any resolved identity.
// This is the current placeholder policy: authentication only, no role
// checks.
//
// A role-based replacement would gate operations on identity.Roles, e.g.
// update requiring "admin" and create requiring "staff" or "admin".
type AllowAuthenticated struct{}

// Authorize implements Policy.
func (AllowAuthenticated) Authorize(identity *Identity, operation Operation, resource string) error {
	if identity == nil || identity.UserID == "" {
		return controller.NewUnauthorizedError("identity required")
	}
	return nil
}
