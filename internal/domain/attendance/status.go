package attendance

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
)

// StatusOn derives an employee's presence on date from the ledger: present
// exactly when that day's record exists and is still open.
func StatusOn(ctx context.Context, repo AttendanceRepository, employeeID, date string) (employee.Status, error) {
	record, err := repo.GetByEmployeeAndDate(ctx, employeeID, date)
	if errors.Is(err, ErrAttendanceNotFound) {
		return employee.StatusAbsent, nil
	}
	if err != nil {
		return "", err
	}
	return employee.StatusFor(record.IsOpen()), nil
}
