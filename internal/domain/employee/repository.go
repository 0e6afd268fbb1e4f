package employee

import "context"

type EmployeeRepository interface {
	// Create appends the employee with status absent, or fails with ErrDuplicateIdentity.
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	List(ctx context.Context) ([]Employee, error)
	// Update applies fields and also returns the record as it was before the change.
	Update(ctx context.Context, id string, fields UpdateFields) (updated Employee, previous Employee, err error)

	// SetStatus writes the presence mirror. Only the attendance workflow calls it.
	SetStatus(ctx context.Context, id string, status Status) error
	// ReconcileStatuses rewrites every mirror in a single locked pass. present
	// is called while the lock is held, so a status write that has not landed
	// yet is ordered after the pass.
	ReconcileStatuses(ctx context.Context, present func(ctx context.Context) (map[string]bool, error)) (int, error)
}
