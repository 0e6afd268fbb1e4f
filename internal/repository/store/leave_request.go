package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/domain/leave"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
)

type leaveRequestRepositoryImpl struct {
	leaves *recordstore.Collection[leave.LeaveRequest]
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	if request.ID == "" {
		id, err := newID()
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to generate leave request id: %w", err)
		}
		request.ID = id
	}
	request.Status = leave.StatusPending
	request.DecidedBy = nil
	request.DecidedAt = nil

	err := r.leaves.WithLock(ctx, func(records []leave.LeaveRequest) ([]leave.LeaveRequest, error) {
		return append(records, request), nil
	})
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	records, err := r.leaves.Load(ctx)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	for _, l := range records {
		if l.ID == id {
			return l, nil
		}
	}
	return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
}

// Decide implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Decide(ctx context.Context, id string, decision leave.Status, decidedBy string, at time.Time) (leave.LeaveRequest, error) {
	if !decision.IsDecision() {
		return leave.LeaveRequest{}, leave.ErrInvalidDecision
	}
	at = at.UTC()

	var decided leave.LeaveRequest
	err := r.leaves.WithLock(ctx, func(records []leave.LeaveRequest) ([]leave.LeaveRequest, error) {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			if records[i].Status != leave.StatusPending {
				return nil, leave.ErrLeaveAlreadyDecided
			}
			records[i].Status = decision
			records[i].DecidedBy = &decidedBy
			records[i].DecidedAt = &at
			decided = records[i]
			return records, nil
		}
		return nil, leave.ErrLeaveRequestNotFound
	})
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to decide leave request: %w", err)
	}

	return decided, nil
}

// ListByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	records, err := r.leaves.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	mine := make([]leave.LeaveRequest, 0)
	for _, l := range records {
		if l.EmployeeID == employeeID {
			mine = append(mine, l)
		}
	}
	return mine, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context) ([]leave.LeaveRequest, error) {
	records, err := r.leaves.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return records, nil
}

// CountPending implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) CountPending(ctx context.Context) (int, error) {
	records, err := r.leaves.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending leave requests: %w", err)
	}

	count := 0
	for _, l := range records {
		if l.Status == leave.StatusPending {
			count++
		}
	}
	return count, nil
}

func NewLeaveRequestRepository(rs *recordstore.Store) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{
		leaves: recordstore.NewCollection[leave.LeaveRequest](rs, LeavesCollection),
	}
}
