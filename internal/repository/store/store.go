// Package store implements the employee registry and the attendance and leave
// ledgers on top of recordstore collections. Every state rule runs inside the
// collection's WithLock body, so check-then-act is atomic per collection.
package store

import "github.com/google/uuid"

const (
	EmployeesCollection  = "employees"
	AttendanceCollection = "attendance"
	LeavesCollection     = "leaves"
)

// Collections lists every collection the application owns, for Store.Bootstrap.
func Collections() []string {
	return []string{EmployeesCollection, AttendanceCollection, LeavesCollection}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
