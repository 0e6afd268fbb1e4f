package attendance

import (
	"context"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
)

type AttendanceService interface {
	CheckIn(ctx context.Context) (AttendanceResponse, error)
	CheckOut(ctx context.Context) (AttendanceResponse, error)

	// List returns the caller's own records, or every record for an admin.
	List(ctx context.Context) ([]AttendanceResponse, error)

	TodayStatus(ctx context.Context, employeeID string) (employee.Status, error)
	// ReconcileStatuses repairs every employee status mirror from today's ledger.
	ReconcileStatuses(ctx context.Context) (int, error)
}
