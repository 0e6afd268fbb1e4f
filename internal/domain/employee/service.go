package employee

import "context"

type EmployeeService interface {
	// Caller scoped
	GetProfile(ctx context.Context) (EmployeeResponse, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (EmployeeResponse, error)

	// Admin
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	Get(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	List(ctx context.Context) ([]EmployeeResponse, error)
}
