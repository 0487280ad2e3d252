package engine

import "fmt"

// DayLayout describes the daily lesson cadence. The zero value means the
// standard layout: first lesson at 08:00, 45 minute lessons, 15 minute breaks.
type DayLayout struct {
	DayStartHour   int
	DayStartMinute int
	LessonMinutes  int
	BreakMinutes   int
}

func (l DayLayout) withDefaults() DayLayout {
	if l.DayStartHour == 0 && l.DayStartMinute == 0 {
		l.DayStartHour = 8
	}
	if l.LessonMinutes <= 0 {
		l.LessonMinutes = 45
	}
	if l.BreakMinutes <= 0 {
		l.BreakMinutes = 15
	}
	return l
}

// StartTime returns the wall-clock start of a 1-based period as HH:MM:SS.
func (l DayLayout) StartTime(period int) string {
	l = l.withDefaults()
	if period < 1 {
		period = 1
	}
	minutes := l.DayStartHour*60 + l.DayStartMinute + (period-1)*(l.LessonMinutes+l.BreakMinutes)
	return clockString(minutes)
}

// EndTime returns the wall-clock end of a 1-based period as HH:MM:SS.
func (l DayLayout) EndTime(period int) string {
	l = l.withDefaults()
	if period < 1 {
		period = 1
	}
	minutes := l.DayStartHour*60 + l.DayStartMinute + (period-1)*(l.LessonMinutes+l.BreakMinutes) + l.LessonMinutes
	return clockString(minutes)
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", (minutes/60)%24, minutes%60)
}
