package dashboard

import (
	"context"

	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/dashboard"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/domain/leave"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"golang.org/x/sync/errgroup"
)

type DashboardServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	leaveRepo      leave.LeaveRequestRepository
	clock          *clock.Clock
}

func NewDashboardService(
	employeeRepository employee.EmployeeRepository,
	attendanceRepository attendance.AttendanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	clk *clock.Clock,
) dashboard.DashboardService {
	return &DashboardServiceImpl{
		employeeRepo:   employeeRepository,
		attendanceRepo: attendanceRepository,
		leaveRepo:      leaveRequestRepository,
		clock:          clk,
	}
}

// GetEmployeeDashboard returns the caller's profile with today's status and
// their latest attendance and leave entries. The three loads run in parallel.
func (s *DashboardServiceImpl) GetEmployeeDashboard(ctx context.Context) (*dashboard.EmployeeDashboardResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		profile  employee.Employee
		records  []attendance.Attendance
		requests []leave.LeaveRequest
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		profile, err = s.employeeRepo.GetByID(gCtx, caller.EmployeeID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.ListByEmployee(gCtx, caller.EmployeeID)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = s.leaveRepo.ListByEmployee(gCtx, caller.EmployeeID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := employee.StatusFor(attendance.PresentOn(records, s.clock.Today())[caller.EmployeeID])

	return &dashboard.EmployeeDashboardResponse{
		Profile:          employee.NewEmployeeResponse(profile, status),
		TodayStatus:      string(status),
		RecentAttendance: attendance.NewAttendanceResponses(lastN(records, dashboard.RecentLimit), s.clock.Location()),
		RecentLeaves:     leave.NewLeaveRequestResponses(lastN(requests, dashboard.RecentLimit)),
	}, nil
}

// GetAdminDashboard returns headcount, who is in today and the pending leave queue size.
func (s *DashboardServiceImpl) GetAdminDashboard(ctx context.Context) (*dashboard.AdminDashboardResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var (
		employees     []employee.Employee
		records       []attendance.Attendance
		pendingLeaves int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		employees, err = s.employeeRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		pendingLeaves, err = s.leaveRepo.CountPending(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	present := attendance.PresentOn(records, s.clock.Today())
	resp := &dashboard.AdminDashboardResponse{
		PendingLeaves: pendingLeaves,
		Employees:     make([]employee.EmployeeResponse, 0, len(employees)),
	}
	for _, e := range employees {
		if e.Role != employee.RoleEmployee {
			continue
		}
		status := employee.StatusFor(present[e.ID])
		if status == employee.StatusPresent {
			resp.PresentToday++
		}
		resp.Employees = append(resp.Employees, employee.NewEmployeeResponse(e, status))
	}
	resp.TotalEmployees = len(resp.Employees)

	return resp, nil
}

// GetEmployeeDetail returns one employee with their full attendance and leave history.
func (s *DashboardServiceImpl) GetEmployeeDetail(ctx context.Context, employeeID string) (*dashboard.EmployeeDetailResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var (
		target   employee.Employee
		records  []attendance.Attendance
		requests []leave.LeaveRequest
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		target, err = s.employeeRepo.GetByID(gCtx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.ListByEmployee(gCtx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = s.leaveRepo.ListByEmployee(gCtx, employeeID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := employee.StatusFor(attendance.PresentOn(records, s.clock.Today())[employeeID])

	return &dashboard.EmployeeDetailResponse{
		Employee:   employee.NewEmployeeResponse(target, status),
		Attendance: attendance.NewAttendanceResponses(records, s.clock.Location()),
		Leaves:     leave.NewLeaveRequestResponses(requests),
	}, nil
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
