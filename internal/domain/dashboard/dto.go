package dashboard

import (
	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/domain/leave"
)

// RecentLimit is how many attendance and leave entries the employee dashboard shows.
const RecentLimit = 5

type EmployeeDashboardResponse struct {
	Profile          employee.EmployeeResponse       `json:"profile"`
	TodayStatus      string                          `json:"today_status"`
	RecentAttendance []attendance.AttendanceResponse `json:"recent_attendance"`
	RecentLeaves     []leave.LeaveRequestResponse    `json:"recent_leaves"`
}

type AdminDashboardResponse struct {
	TotalEmployees int                         `json:"total_employees"`
	PresentToday   int                         `json:"present_today"`
	PendingLeaves  int                         `json:"pending_leaves"`
	Employees      []employee.EmployeeResponse `json:"employees"`
}

type EmployeeDetailResponse struct {
	Employee   employee.EmployeeResponse       `json:"employee"`
	Attendance []attendance.AttendanceResponse `json:"attendance"`
	Leaves     []leave.LeaveRequestResponse    `json:"leaves"`
}
