package reservation

import "fmt"

// Status represents the lifecycle state of a reservation.
type Status string

const (
	// StatusOncoming is the initial state of every fresh booking and the only
	// state the time-driven sweep may rewrite.
	StatusOncoming Status = "oncoming"
	// StatusLate marks a reservation whose scheduled end has passed without
	// completion.
	StatusLate Status = "late"
	// StatusDone marks a completed visit. Sink state for the sweep; the
	// reservation becomes immutable to ordinary rescheduling.
	StatusDone Status = "done"
	// StatusRescheduled marks a reservation moved to a future slot.
	StatusRescheduled Status = "rescheduled"
	// StatusCanceled marks a canceled reservation. Sink state for the sweep.
	StatusCanceled Status = "canceled"
)

var allStatuses = map[Status]struct{}{
	StatusOncoming:    {},
	StatusLate:        {},
	StatusDone:        {},
	StatusRescheduled: {},
	StatusCanceled:    {},
}

// IsValid returns true if the status is a recognized reservation status.
func (s Status) IsValid() bool {
	_, ok := allStatuses[s]
	return ok
}

// IsSink reports whether the time-driven sweep must never touch this status.
func (s Status) IsSink() bool {
	return s == StatusDone || s == StatusCanceled
}

// SweepEligible reports whether the reconciliation pass may rewrite this
// status. Only oncoming reservations participate in automatic transitions.
func (s Status) SweepEligible() bool {
	return s == StatusOncoming
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}

// DeriveRescheduleStatus computes the status a reservation takes after an
// explicit date/time edit. A requested canceled or done status always wins.
// Otherwise a start already in the past forces late regardless of caller
// intent, a future start keeps the caller's requested status, and absent any
// request a future start becomes rescheduled.
func DeriveRescheduleStatus(requested *Status, startInFuture bool) Status {
	if requested != nil && (*requested == StatusCanceled || *requested == StatusDone) {
		return *requested
	}
	if !startInFuture {
		return StatusLate
	}
	if requested != nil {
		return *requested
	}
	return StatusRescheduled
}
