package reservation

import (
	"fmt"
	"time"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// CalendarDate is a civil date (day, month, year) with no timezone attached.
// All values entering the scheduler are already normalized to a single civil
// reference frame, so the type never performs timezone math. Immutable once
// constructed.
type CalendarDate struct {
	day   int
	month time.Month
	year  int
}

// NewCalendarDate validates that the triple denotes a real civil date,
// accounting for month lengths and leap years.
func NewCalendarDate(day, month, year int) (CalendarDate, error) {
	if year <= 0 {
		return CalendarDate{}, domain.NewValidationError(fmt.Sprintf("invalid year: %d", year))
	}
	if month < 1 || month > 12 {
		return CalendarDate{}, domain.NewValidationError(fmt.Sprintf("invalid month: %d", month))
	}
	if day < 1 || day > daysInMonth(time.Month(month), year) {
		return CalendarDate{}, domain.NewValidationError(
			fmt.Sprintf("invalid day %d for %04d-%02d", day, year, month))
	}
	return CalendarDate{day: day, month: time.Month(month), year: year}, nil
}

// ParseCalendarDate parses an ISO "YYYY-MM-DD" date string.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDate{}, domain.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return CalendarDate{day: t.Day(), month: t.Month(), year: t.Year()}, nil
}

// DateOf extracts the civil date of an instant, read in UTC.
func DateOf(t time.Time) CalendarDate {
	u := t.UTC()
	return CalendarDate{day: u.Day(), month: u.Month(), year: u.Year()}
}

func daysInMonth(month time.Month, year int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the day of month, 1-31.
func (d CalendarDate) Day() int { return d.day }

// Month returns the month, 1-12.
func (d CalendarDate) Month() time.Month { return d.month }

// Year returns the year.
func (d CalendarDate) Year() int { return d.year }

// IsZero reports whether the date is the uninitialized zero value.
func (d CalendarDate) IsZero() bool { return d == CalendarDate{} }

// Equal reports whether two dates denote the same civil day.
func (d CalendarDate) Equal(other CalendarDate) bool { return d == other }

// Before reports whether d is chronologically before other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

// At anchors a time of day on this date, producing an instant in UTC.
func (d CalendarDate) At(t TimeOfDay) time.Time {
	return time.Date(d.year, d.month, d.day, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// Midnight returns the start of this date as a UTC instant. Used as the
// canonical persisted form of the date column.
func (d CalendarDate) Midnight() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as ISO "YYYY-MM-DD".
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}
