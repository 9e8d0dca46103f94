package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"9:30", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Minutes())
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	tod, err := NewTimeOfDay(9, 5)
	require.NoError(t, err)
	assert.Equal(t, "09:05", tod.String())
}

func TestNewTimeRange(t *testing.T) {
	_, err := NewTimeRange(TimeOfDay(600), TimeOfDay(600))
	assert.Error(t, err, "zero-length range must be rejected")

	_, err = NewTimeRange(TimeOfDay(630), TimeOfDay(600))
	assert.Error(t, err, "inverted range must be rejected")

	tr, err := NewTimeRange(TimeOfDay(600), TimeOfDay(630))
	require.NoError(t, err)
	assert.Equal(t, 30, tr.DurationMinutes())
	assert.Equal(t, "10:00-10:30", tr.String())
}

func TestTimeRangeOverlaps(t *testing.T) {
	mustRange := func(from, to string) TimeRange {
		tr, err := ParseTimeRange(from, to)
		require.NoError(t, err)
		return tr
	}

	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"identical", mustRange("10:00", "10:30"), mustRange("10:00", "10:30"), true},
		{"partial overlap", mustRange("10:00", "11:00"), mustRange("10:30", "11:30"), true},
		{"containment", mustRange("09:00", "12:00"), mustRange("10:00", "10:30"), true},
		{"touching endpoints", mustRange("10:00", "10:30"), mustRange("10:30", "11:00"), false},
		{"disjoint", mustRange("09:00", "09:30"), mustRange("11:00", "11:30"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}
