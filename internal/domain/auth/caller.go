package auth

import (
	"context"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
)

// Caller is the authenticated account behind a request.
type Caller struct {
	EmployeeID string
	Role       employee.Role
	Name       string
	Email      string
}

func (c Caller) IsAdmin() bool {
	return c.Role == employee.RoleAdmin
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns ErrUnauthenticated when no caller was attached.
func CallerFromContext(ctx context.Context) (Caller, error) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || caller.EmployeeID == "" {
		return Caller{}, ErrUnauthenticated
	}
	return caller, nil
}

// RequireAdmin returns the caller if it is an admin.
func RequireAdmin(ctx context.Context) (Caller, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return Caller{}, err
	}
	if !caller.IsAdmin() {
		return Caller{}, ErrAdminPrivilegeRequired
	}
	return caller, nil
}
