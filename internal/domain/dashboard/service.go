package dashboard

import "context"

type DashboardService interface {
	GetEmployeeDashboard(ctx context.Context) (*EmployeeDashboardResponse, error)
	GetAdminDashboard(ctx context.Context) (*AdminDashboardResponse, error)
	GetEmployeeDetail(ctx context.Context, employeeID string) (*EmployeeDetailResponse, error)
}
