package employee

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Salary is persisted and served as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Employee is one account in the identity registry. Admins are employees with RoleAdmin.
type Employee struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"password"`
	Role           Role            `json:"role"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Department     string          `json:"department"`
	Position       string          `json:"position"`
	Salary         decimal.Decimal `json:"salary"`
	JoinDate       string          `json:"joinDate"`
	ProfilePicture *string         `json:"profilePicture"`
	Status         Status          `json:"status"`
}

func (e Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// StatusFor maps "has an open check-in today" to the presence status.
func StatusFor(present bool) Status {
	if present {
		return StatusPresent
	}
	return StatusAbsent
}

// NormalizeEmail is the canonical stored form; uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
