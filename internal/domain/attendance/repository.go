package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// CheckIn appends an open record, or fails with ErrAlreadyCheckedIn when
	// the employee already has one for record.Date.
	CheckIn(ctx context.Context, record Attendance) (Attendance, error)
	// CheckOut closes the employee's record for date at the given instant.
	CheckOut(ctx context.Context, employeeID, date string, at time.Time) (Attendance, error)

	GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (Attendance, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Attendance, error)
	List(ctx context.Context) ([]Attendance, error)
}
