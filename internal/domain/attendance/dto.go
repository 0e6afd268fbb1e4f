package attendance

import "time"

const timeLayout = "15:04:05"

type AttendanceResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Date         string   `json:"date"`
	CheckIn      string   `json:"check_in"`
	CheckOut     *string  `json:"check_out"`
	WorkingHours *float64 `json:"working_hours"`
	Status       string   `json:"status"`
}

// NewAttendanceResponse renders clock times in loc, the zone the date was computed in.
func NewAttendanceResponse(a Attendance, loc *time.Location) AttendanceResponse {
	resp := AttendanceResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		Date:         a.Date,
		CheckIn:      a.CheckIn.In(loc).Format(timeLayout),
		WorkingHours: a.WorkedHours(),
		Status:       string(a.Status),
	}
	if a.CheckOut != nil {
		checkOut := a.CheckOut.In(loc).Format(timeLayout)
		resp.CheckOut = &checkOut
	}
	return resp
}

func NewAttendanceResponses(records []Attendance, loc *time.Location) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(records))
	for _, a := range records {
		out = append(out, NewAttendanceResponse(a, loc))
	}
	return out
}
