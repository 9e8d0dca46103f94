package reservation

import (
	"fmt"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// Conflict describes a scheduling collision: the date and the already-booked
// range the candidate intersects. It carries enough information for the caller
// to report exactly which slot collided.
type Conflict struct {
	Date      CalendarDate
	Candidate TimeRange
	Booked    TimeRange
}

// Err converts the conflict into the user-facing conflict error.
func (c *Conflict) Err() error {
	return domain.NewConflictError(fmt.Sprintf(
		"time slot %s is already reserved for %s (conflicts with %s)",
		c.Candidate, c.Date, c.Booked))
}

// CheckConflict decides whether candidate may be booked against the existing
// ranges already reserved on date. It returns the first collision found, or
// nil when the candidate is bookable. Pure function: the caller supplies the
// relevant ranges for the target date; cross-date comparison never happens
// here.
func CheckConflict(date CalendarDate, candidate TimeRange, existing []TimeRange) *Conflict {
	for _, booked := range existing {
		if candidate.Overlaps(booked) {
			return &Conflict{Date: date, Candidate: candidate, Booked: booked}
		}
	}
	return nil
}

// overlapsAny reports whether candidate intersects any of the given ranges.
func overlapsAny(candidate TimeRange, existing []TimeRange) bool {
	for _, booked := range existing {
		if candidate.Overlaps(booked) {
			return true
		}
	}
	return false
}
