package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
)

const defaultMirrorTries = 3

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employeeRepo employee.EmployeeRepository
	clock        *clock.Clock

	mirrorTries   uint
	mirrorBackOff func() backoff.BackOff
}

func NewAttendanceService(attendanceRepository attendance.AttendanceRepository, employeeRepository employee.EmployeeRepository, clk *clock.Clock) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepository,
		employeeRepo:         employeeRepository,
		clock:                clk,
		mirrorTries:          defaultMirrorTries,
		mirrorBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// Name is snapshotted from the registry, not the token, so renames show up.
	account, err := s.employeeRepo.GetByID(ctx, caller.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	record, err := s.AttendanceRepository.CheckIn(ctx, attendance.Attendance{
		EmployeeID:   account.ID,
		EmployeeName: account.Name,
		Date:         now.Format(clock.DateLayout),
		CheckIn:      now,
		Status:       attendance.StatusPresent,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// The attendance lock is already released here; the mirror takes the employees lock on its own.
	s.mirrorStatus(ctx, account.ID, employee.StatusPresent)

	slog.Info("Attendance: checked in", "employee_id", account.ID, "date", record.Date)
	return attendance.NewAttendanceResponse(record, s.clock.Location()), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	record, err := s.AttendanceRepository.CheckOut(ctx, caller.EmployeeID, now.Format(clock.DateLayout), now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.mirrorStatus(ctx, caller.EmployeeID, employee.StatusAbsent)

	slog.Info("Attendance: checked out", "employee_id", caller.EmployeeID, "date", record.Date)
	return attendance.NewAttendanceResponse(record, s.clock.Location()), nil
}

// mirrorStatus writes the stored employee status after an attendance change.
// Only lock contention is retried. A failure is logged and left for
// ReconcileStatuses; the attendance record stays authoritative either way.
func (s *AttendanceServiceImpl) mirrorStatus(ctx context.Context, employeeID string, status employee.Status) {
	ctx = context.WithoutCancel(ctx)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.employeeRepo.SetStatus(ctx, employeeID, status)
		if err != nil && !errors.Is(err, recordstore.ErrLockTimeout) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(s.mirrorBackOff()), backoff.WithMaxTries(s.mirrorTries))

	if err != nil {
		slog.Error("Attendance: failed to update employee status, leaving it to reconciliation",
			"employee_id", employeeID, "status", status, "error", err)
	}
}

// List implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) List(ctx context.Context) ([]attendance.AttendanceResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var records []attendance.Attendance
	if caller.IsAdmin() {
		records, err = s.AttendanceRepository.List(ctx)
	} else {
		records, err = s.AttendanceRepository.ListByEmployee(ctx, caller.EmployeeID)
	}
	if err != nil {
		return nil, err
	}

	return attendance.NewAttendanceResponses(records, s.clock.Location()), nil
}

// TodayStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) TodayStatus(ctx context.Context, employeeID string) (employee.Status, error) {
	return attendance.StatusOn(ctx, s.AttendanceRepository, employeeID, s.clock.Today())
}

// ReconcileStatuses implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ReconcileStatuses(ctx context.Context) (int, error) {
	// The ledger is read inside the registry lock. Reading it earlier lets a
	// check-in land in between and get its fresh mirror overwritten.
	changed, err := s.employeeRepo.ReconcileStatuses(ctx, func(ctx context.Context) (map[string]bool, error) {
		records, err := s.AttendanceRepository.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load attendance for reconciliation: %w", err)
		}
		return attendance.PresentOn(records, s.clock.Today()), nil
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		slog.Info("Attendance: reconciled employee statuses", "changed", changed)
	}
	return changed, nil
}
