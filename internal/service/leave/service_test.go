package leave

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/domain/leave"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
	"github.com/cmlabs-hris/dayflow/internal/pkg/validator"
	"github.com/cmlabs-hris/dayflow/internal/repository/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaveTestService(t *testing.T) leave.LeaveService {
	t.Helper()
	backend, err := recordstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	rs := recordstore.New(backend)
	t.Cleanup(func() { rs.Close() })

	employees := store.NewEmployeeRepository(rs)
	for _, e := range []employee.Employee{
		{ID: "EMP001", Email: "admin@dayflow.com", Role: employee.RoleAdmin, Name: "Admin"},
		{ID: "EMP100", Email: "jane@example.com", Role: employee.RoleEmployee, Name: "Jane"},
		{ID: "EMP200", Email: "john@example.com", Role: employee.RoleEmployee, Name: "John"},
	} {
		_, err := employees.Create(context.Background(), e)
		require.NoError(t, err)
	}

	clk := clock.NewFixed(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), time.UTC)
	return NewLeaveService(store.NewLeaveRequestRepository(rs), employees, clk)
}

var (
	adminCtx = auth.WithCaller(context.Background(), auth.Caller{EmployeeID: "EMP001", Role: employee.RoleAdmin})
	janeCtx  = auth.WithCaller(context.Background(), auth.Caller{EmployeeID: "EMP100", Role: employee.RoleEmployee})
	johnCtx  = auth.WithCaller(context.Background(), auth.Caller{EmployeeID: "EMP200", Role: employee.RoleEmployee})
)

func sickLeave() leave.ApplyLeaveRequest {
	return leave.ApplyLeaveRequest{LeaveType: "sick", StartDate: "2025-03-12", EndDate: "2025-03-13", Remarks: " flu "}
}

func TestLeaveService_Apply(t *testing.T) {
	svc := newLeaveTestService(t)

	resp, err := svc.Apply(janeCtx, sickLeave())
	require.NoError(t, err)
	assert.Equal(t, "EMP100", resp.EmployeeID)
	assert.Equal(t, "Jane", resp.EmployeeName)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "2025-03-10", resp.AppliedDate)
	assert.Equal(t, "flu", resp.Remarks)
	assert.Nil(t, resp.DecidedBy)

	tests := []struct {
		name  string
		req   leave.ApplyLeaveRequest
		field string
	}{
		{"end before start", leave.ApplyLeaveRequest{LeaveType: "sick", StartDate: "2025-03-13", EndDate: "2025-03-12"}, "end_date"},
		{"bad start date", leave.ApplyLeaveRequest{LeaveType: "sick", StartDate: "13/03/2025", EndDate: "2025-03-13"}, "start_date"},
		{"missing type", leave.ApplyLeaveRequest{StartDate: "2025-03-12", EndDate: "2025-03-12"}, "leave_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(janeCtx, tt.req)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}

	t.Run("single day leave", func(t *testing.T) {
		_, err := svc.Apply(janeCtx, leave.ApplyLeaveRequest{LeaveType: "casual", StartDate: "2025-03-14", EndDate: "2025-03-14"})
		assert.NoError(t, err)
	})
}

func TestLeaveService_Decide(t *testing.T) {
	svc := newLeaveTestService(t)

	first, err := svc.Apply(janeCtx, sickLeave())
	require.NoError(t, err)
	second, err := svc.Apply(johnCtx, sickLeave())
	require.NoError(t, err)

	_, err = svc.Approve(janeCtx, first.ID)
	assert.ErrorIs(t, err, auth.ErrAdminPrivilegeRequired, "employees cannot decide, not even their own request")

	approved, err := svc.Approve(adminCtx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, "EMP001", *approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)

	_, err = svc.Reject(adminCtx, first.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveAlreadyDecided)
	_, err = svc.Approve(adminCtx, first.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveAlreadyDecided)

	rejected, err := svc.Reject(adminCtx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	_, err = svc.Approve(adminCtx, "0195a1b2-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestLeaveService_ListAndCount(t *testing.T) {
	svc := newLeaveTestService(t)

	first, err := svc.Apply(janeCtx, sickLeave())
	require.NoError(t, err)
	_, err = svc.Apply(janeCtx, sickLeave())
	require.NoError(t, err)
	_, err = svc.Apply(johnCtx, sickLeave())
	require.NoError(t, err)

	_, err = svc.Approve(adminCtx, first.ID)
	require.NoError(t, err)

	mine, err := svc.List(janeCtx)
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)
	assert.Equal(t, 1, mine.PendingCount)

	all, err := svc.List(adminCtx)
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Equal(t, 2, all.PendingCount)

	pending, err := svc.CountPending(adminCtx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	_, err = svc.CountPending(johnCtx)
	assert.ErrorIs(t, err, auth.ErrAdminPrivilegeRequired)
}
