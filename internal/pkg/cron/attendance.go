package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
)

// DefaultReconcileInterval bounds how long a stale status mirror can survive,
// including across midnight when open check-ins stop counting.
const DefaultReconcileInterval = 15 * time.Minute

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	interval          time.Duration
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		interval:          interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_employee_statuses", j.interval, j.ReconcileEmployeeStatuses)
}

// ReconcileEmployeeStatuses rewrites every stored employee status from today's attendance.
func (j *AttendanceJobs) ReconcileEmployeeStatuses(ctx context.Context) error {
	if _, err := j.attendanceService.ReconcileStatuses(ctx); err != nil {
		return fmt.Errorf("failed to reconcile employee statuses: %w", err)
	}
	return nil
}
