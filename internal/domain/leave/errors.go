package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrLeaveAlreadyDecided  = errors.New("leave request has already been approved or rejected")
	ErrInvalidDecision      = errors.New("decision must be approved or rejected")
)
