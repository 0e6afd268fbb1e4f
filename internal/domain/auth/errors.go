package auth

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
)
