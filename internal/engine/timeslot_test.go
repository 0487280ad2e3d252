package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayLayoutStandardCadence(t *testing.T) {
	var layout DayLayout

	cases := []struct {
		period int
		start  string
		end    string
	}{
		{1, "08:00:00", "08:45:00"},
		{2, "09:00:00", "09:45:00"},
		{3, "10:00:00", "10:45:00"},
		{5, "12:00:00", "12:45:00"},
		{8, "15:00:00", "15:45:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.start, layout.StartTime(tc.period), "start of period %d", tc.period)
		assert.Equal(t, tc.end, layout.EndTime(tc.period), "end of period %d", tc.period)
	}
}

func TestDayLayoutCustomCadence(t *testing.T) {
	layout := DayLayout{DayStartHour: 7, DayStartMinute: 30, LessonMinutes: 40, BreakMinutes: 10}

	assert.Equal(t, "07:30:00", layout.StartTime(1))
	assert.Equal(t, "08:10:00", layout.EndTime(1))
	assert.Equal(t, "08:20:00", layout.StartTime(2))
}

func TestDayLayoutIsPure(t *testing.T) {
	var layout DayLayout
	for i := 0; i < 3; i++ {
		assert.Equal(t, "09:00:00", layout.StartTime(2))
	}
}
