package auth

import (
	"context"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
)

type AuthService interface {
	// Signup registers a new account with the employee role.
	Signup(ctx context.Context, req SignupRequest) (employee.EmployeeResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Logout(ctx context.Context, token string) error

	// SeedAdmin creates the bootstrap admin when no admin account exists yet.
	SeedAdmin(ctx context.Context, req SeedAdminRequest) (bool, error)
}
