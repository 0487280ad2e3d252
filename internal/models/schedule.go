package models

import "time"

// ScheduleEntry is one placed lesson: a class meets a teacher for a subject
// at a fixed day and period. Start and end times are derived from the period
// index, never stored independently of it.
type ScheduleEntry struct {
	ID        string     `db:"id" json:"id,omitempty"`
	SchoolID  string     `db:"school_id" json:"school_id"`
	ClassID   string     `db:"class_id" json:"class_id"`
	SubjectID string     `db:"subject_id" json:"subject_id"`
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	Day       int        `db:"day_of_week" json:"day_of_week"`
	Period    int        `db:"period" json:"period"`
	Room      *string    `db:"room" json:"room,omitempty"`
	StartTime string     `db:"start_time" json:"start_time"`
	EndTime   string     `db:"end_time" json:"end_time"`
	CreatedBy string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// RoomValue returns the room string or empty when unset.
func (e ScheduleEntry) RoomValue() string {
	if e.Room == nil {
		return ""
	}
	return *e.Room
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	ClassID   string
	SubjectID string
	TeacherID string
	Day       int
	Period    int
	Room      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Relation flags for the schedule read path. The legacy API accepted free-form
// "include" strings; here expansion is an explicit typed set.
type RelationSet struct {
	Subject bool
	Teacher bool
	Class   bool
}

// Any reports whether at least one relation is requested.
func (r RelationSet) Any() bool {
	return r.Subject || r.Teacher || r.Class
}

// ScheduleEntryDetail enriches entries with descriptive fields when the
// corresponding relation was expanded.
type ScheduleEntryDetail struct {
	ScheduleEntry
	SubjectName *string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	ClassName   *string `db:"class_name" json:"class_name,omitempty"`
}

var dayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

// DayName maps a 1-based day index to its canonical name.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "MONDAY"
}
