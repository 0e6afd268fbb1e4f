package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
)

type attendanceRepository struct {
	attendance *recordstore.Collection[attendance.Attendance]
}

// CheckIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) CheckIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	if record.ID == "" {
		id, err := newID()
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		record.ID = id
	}
	record.CheckIn = record.CheckIn.UTC()
	record.CheckOut = nil

	err := a.attendance.WithLock(ctx, func(records []attendance.Attendance) ([]attendance.Attendance, error) {
		for _, existing := range records {
			if existing.EmployeeID == record.EmployeeID && existing.Date == record.Date {
				return nil, attendance.ErrAlreadyCheckedIn
			}
		}
		return append(records, record), nil
	})
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to check in: %w", err)
	}

	return record, nil
}

// CheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) CheckOut(ctx context.Context, employeeID, date string, at time.Time) (attendance.Attendance, error) {
	var closed attendance.Attendance
	at = at.UTC()

	err := a.attendance.WithLock(ctx, func(records []attendance.Attendance) ([]attendance.Attendance, error) {
		for i := range records {
			if records[i].EmployeeID != employeeID || records[i].Date != date {
				continue
			}
			if !records[i].IsOpen() {
				return nil, attendance.ErrAlreadyCheckedOut
			}
			records[i].CheckOut = &at
			closed = records[i]
			return records, nil
		}
		return nil, attendance.ErrNoCheckInFound
	})
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to check out: %w", err)
	}

	return closed, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (attendance.Attendance, error) {
	records, err := a.attendance.Load(ctx)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	for _, record := range records {
		if record.EmployeeID == employeeID && record.Date == date {
			return record, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

// ListByEmployee implements attendance.AttendanceRepository. Records come back in date order.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string) ([]attendance.Attendance, error) {
	records, err := a.attendance.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	mine := make([]attendance.Attendance, 0)
	for _, record := range records {
		if record.EmployeeID == employeeID {
			mine = append(mine, record)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].Date < mine[j].Date
	})
	return mine, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context) ([]attendance.Attendance, error) {
	records, err := a.attendance.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func NewAttendanceRepository(rs *recordstore.Store) attendance.AttendanceRepository {
	return &attendanceRepository{
		attendance: recordstore.NewCollection[attendance.Attendance](rs, AttendanceCollection),
	}
}
