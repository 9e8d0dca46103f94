package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

func TestCheckConflict(t *testing.T) {
	date, err := NewCalendarDate(17, 4, 2025)
	require.NoError(t, err)

	mustRange := func(from, to string) TimeRange {
		tr, err := ParseTimeRange(from, to)
		require.NoError(t, err)
		return tr
	}
	existing := []TimeRange{
		mustRange("09:00", "09:30"),
		mustRange("10:00", "10:30"),
	}

	t.Run("empty day never conflicts", func(t *testing.T) {
		assert.Nil(t, CheckConflict(date, mustRange("10:00", "10:30"), nil))
	})

	t.Run("overlap is detected", func(t *testing.T) {
		c := CheckConflict(date, mustRange("10:15", "10:45"), existing)
		require.NotNil(t, c)
		assert.Equal(t, mustRange("10:00", "10:30"), c.Booked)
		assert.True(t, domain.IsKind(c.Err(), domain.KindConflict))
		assert.Contains(t, c.Err().Error(), "time slot 10:15-10:45 is already reserved for 2025-04-17")
	})

	t.Run("adjacent ranges do not conflict", func(t *testing.T) {
		assert.Nil(t, CheckConflict(date, mustRange("09:30", "10:00"), existing))
		assert.Nil(t, CheckConflict(date, mustRange("10:30", "11:00"), existing))
	})
}
