package leave

import "time"

// LeaveRequest moves pending -> approved or pending -> rejected exactly once.
type LeaveRequest struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	LeaveType    string     `json:"leaveType"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	Remarks      string     `json:"remarks"`
	Status       Status     `json:"status"`
	AppliedDate  string     `json:"appliedDate"`
	DecidedBy    *string    `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsDecision reports whether s is a valid target of a decision.
func (s Status) IsDecision() bool {
	return s.IsTerminal()
}
