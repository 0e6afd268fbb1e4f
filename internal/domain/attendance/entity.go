package attendance

import "time"

// Attendance is one employee's record for one local day. Check-in creates it,
// check-out closes it, nothing deletes it.
type Attendance struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	Date         string     `json:"date"`
	CheckIn      time.Time  `json:"checkIn"`
	CheckOut     *time.Time `json:"checkOut"`
	Status       Status     `json:"status"`
}

type Status string

const StatusPresent Status = "present"

func (a Attendance) IsOpen() bool {
	return a.CheckOut == nil
}

// WorkedHours is the check-in to check-out span in hours, nil while open.
func (a Attendance) WorkedHours() *float64 {
	if a.CheckOut == nil {
		return nil
	}
	hours := a.CheckOut.Sub(a.CheckIn).Hours()
	return &hours
}

// PresentOn returns the employees holding an open check-in on date.
func PresentOn(records []Attendance, date string) map[string]bool {
	present := make(map[string]bool)
	for _, a := range records {
		if a.Date == date && a.IsOpen() {
			present[a.EmployeeID] = true
		}
	}
	return present
}
