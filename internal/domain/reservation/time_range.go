package reservation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// minutesPerDay bounds a TimeOfDay to a single calendar day.
const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight (0-1439).
// "HH:MM" strings exist only at the boundary; all comparison happens on the
// minute count.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid hour: %d", hour))
	}
	if minute < 0 || minute > 59 {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid minute: %d", minute))
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:MM", s))
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:MM", s))
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:MM", s))
	}
	return NewTimeOfDay(hour, minute)
}

// Hour returns the hour component, 0-23.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component, 0-59.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Minutes returns the raw minutes-since-midnight value.
func (t TimeOfDay) Minutes() int { return int(t) }

// String formats the time as 24-hour "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// TimeRange is a half-open interval [From, To) of wall-clock time within one
// day. From strictly precedes To; zero-length and inverted ranges are rejected
// at construction.
type TimeRange struct {
	from TimeOfDay
	to   TimeOfDay
}

// NewTimeRange validates and builds a TimeRange.
func NewTimeRange(from, to TimeOfDay) (TimeRange, error) {
	if from < 0 || int(to) > minutesPerDay {
		return TimeRange{}, domain.NewValidationError("time range must lie within a single day")
	}
	if from >= to {
		return TimeRange{}, domain.NewValidationError(
			fmt.Sprintf("time range start %s must precede end %s", from, to))
	}
	return TimeRange{from: from, to: to}, nil
}

// ParseTimeRange parses "HH:MM" boundary strings into a TimeRange.
func ParseTimeRange(from, to string) (TimeRange, error) {
	f, err := ParseTimeOfDay(from)
	if err != nil {
		return TimeRange{}, err
	}
	t, err := ParseTimeOfDay(to)
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(f, t)
}

// From returns the inclusive start of the range.
func (r TimeRange) From() TimeOfDay { return r.from }

// To returns the exclusive end of the range.
func (r TimeRange) To() TimeOfDay { return r.to }

// DurationMinutes returns the length of the range in minutes.
func (r TimeRange) DurationMinutes() int { return int(r.to - r.from) }

// Overlaps reports whether two half-open ranges intersect. Touching endpoints
// (one range ending exactly where another starts) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.from < other.to && r.to > other.from
}

// Equal reports exact range equality.
func (r TimeRange) Equal(other TimeRange) bool { return r == other }

// String formats the range as "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return r.from.String() + "-" + r.to.String()
}
