package reservation

import (
	"fmt"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// Default business-hours configuration.
const (
	DefaultStartHour   = 9
	DefaultEndHour     = 17
	DefaultSlotMinutes = 30
)

// BusinessHours is the daily booking window, in whole hours.
type BusinessHours struct {
	StartHour int
	EndHour   int
}

// DefaultBusinessHours returns the standard 09:00-17:00 window.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
}

// Validate checks that the window is well-formed.
func (h BusinessHours) Validate() error {
	if h.StartHour < 0 || h.EndHour > 24 || h.StartHour >= h.EndHour {
		return domain.NewValidationError(
			fmt.Sprintf("invalid business hours %02d:00-%02d:00", h.StartHour, h.EndHour))
	}
	return nil
}

// GenerateSlots enumerates candidate slots of slotMinutes length within the
// business-hours window and returns those that do not overlap any existing
// range, in chronological order. A final partial slot that would extend past
// the closing hour is discarded. The result is fully materialized.
//
// Exclusion is overlap-based: a candidate is dropped when it intersects an
// existing reservation at all, not only when it matches one exactly.
func GenerateSlots(hours BusinessHours, slotMinutes int, existing []TimeRange) ([]TimeRange, error) {
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	if slotMinutes <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid slot duration: %d minutes", slotMinutes))
	}

	open := hours.StartHour * 60
	close := hours.EndHour * 60

	var slots []TimeRange
	for start := open; start+slotMinutes <= close; start += slotMinutes {
		candidate := TimeRange{
			from: TimeOfDay(start),
			to:   TimeOfDay(start + slotMinutes),
		}
		if !overlapsAny(candidate, existing) {
			slots = append(slots, candidate)
		}
	}
	return slots, nil
}
