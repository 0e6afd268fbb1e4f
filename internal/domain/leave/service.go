package leave

import "context"

type LeaveService interface {
	Apply(ctx context.Context, req ApplyLeaveRequest) (LeaveRequestResponse, error)
	// List returns the caller's own requests, or all of them for an admin.
	List(ctx context.Context) (LeaveListResponse, error)

	// Admin
	Approve(ctx context.Context, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, id string) (LeaveRequestResponse, error)
	CountPending(ctx context.Context) (int, error)
}
