package attendance

import "errors"

var (
	ErrAlreadyCheckedIn   = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut  = errors.New("you have already checked out today")
	ErrNoCheckInFound     = errors.New("no check-in found for today")
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
