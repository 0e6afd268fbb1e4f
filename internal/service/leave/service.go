package leave

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/domain/leave"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
)

type LeaveServiceImpl struct {
	leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	clock        *clock.Clock
}

func NewLeaveService(leaveRequestRepository leave.LeaveRequestRepository, employeeRepository employee.EmployeeRepository, clk *clock.Clock) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRequestRepository: leaveRequestRepository,
		employeeRepo:           employeeRepository,
		clock:                  clk,
	}
}

// Apply implements leave.LeaveService.
func (s *LeaveServiceImpl) Apply(ctx context.Context, req leave.ApplyLeaveRequest) (leave.LeaveRequestResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	account, err := s.employeeRepo.GetByID(ctx, caller.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	created, err := s.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
		EmployeeID:   account.ID,
		EmployeeName: account.Name,
		LeaveType:    strings.TrimSpace(req.LeaveType),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Remarks:      strings.TrimSpace(req.Remarks),
		AppliedDate:  s.clock.Today(),
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave: request submitted", "leave_id", created.ID, "employee_id", account.ID)
	return leave.NewLeaveRequestResponse(created), nil
}

// List implements leave.LeaveService.
func (s *LeaveServiceImpl) List(ctx context.Context) (leave.LeaveListResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return leave.LeaveListResponse{}, err
	}

	var requests []leave.LeaveRequest
	if caller.IsAdmin() {
		requests, err = s.LeaveRequestRepository.List(ctx)
	} else {
		requests, err = s.LeaveRequestRepository.ListByEmployee(ctx, caller.EmployeeID)
	}
	if err != nil {
		return leave.LeaveListResponse{}, err
	}

	pending := 0
	for _, l := range requests {
		if l.Status == leave.StatusPending {
			pending++
		}
	}

	return leave.LeaveListResponse{
		Items:        leave.NewLeaveRequestResponses(requests),
		PendingCount: pending,
	}, nil
}

// Approve implements leave.LeaveService.
func (s *LeaveServiceImpl) Approve(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	return s.decide(ctx, id, leave.StatusApproved)
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	return s.decide(ctx, id, leave.StatusRejected)
}

func (s *LeaveServiceImpl) decide(ctx context.Context, id string, decision leave.Status) (leave.LeaveRequestResponse, error) {
	admin, err := auth.RequireAdmin(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	decided, err := s.LeaveRequestRepository.Decide(ctx, id, decision, admin.EmployeeID, s.clock.Now())
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave: request decided", "leave_id", id, "status", decision, "decided_by", admin.EmployeeID)
	return leave.NewLeaveRequestResponse(decided), nil
}

// CountPending implements leave.LeaveService.
func (s *LeaveServiceImpl) CountPending(ctx context.Context) (int, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return 0, err
	}
	return s.LeaveRequestRepository.CountPending(ctx)
}
