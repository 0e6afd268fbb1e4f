package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrDuplicateIdentity = errors.New("employee id or email already registered")
)
