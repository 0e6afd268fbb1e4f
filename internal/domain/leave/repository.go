package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// Decide moves a pending request to decision. Anything but pending fails with ErrLeaveAlreadyDecided.
	Decide(ctx context.Context, id string, decision Status, decidedBy string, at time.Time) (LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	List(ctx context.Context) ([]LeaveRequest, error)
	CountPending(ctx context.Context) (int, error)
}
