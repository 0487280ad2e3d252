package models

// Constraints bundle the scheduling rules a generation run must respect.
// All maps are keyed by identifier and may be nil, meaning unconstrained.
type Constraints struct {
	MaxPeriodsPerDay    int               `json:"max_periods_per_day"`
	MaxSubjectsPerDay   int               `json:"max_subjects_per_day"`
	BreakPeriods        []int             `json:"break_periods"`
	PreferredSlots      map[string][]int  `json:"preferred_time_slots"`
	AvoidSlots          map[string][]int  `json:"avoid_time_slots"`
	TeacherAvailability map[string][]int  `json:"teacher_availability"`
	RoomBySubject       map[string]string `json:"room_by_subject"`
}

// Normalized returns a copy with defaults applied.
func (c Constraints) Normalized() Constraints {
	if c.MaxPeriodsPerDay <= 0 {
		c.MaxPeriodsPerDay = 8
	}
	return c
}

// IsBreak reports whether the period is excluded from scheduling.
func (c Constraints) IsBreak(period int) bool {
	for _, p := range c.BreakPeriods {
		if p == period {
			return true
		}
	}
	return false
}

// TeacherAvailable reports whether the teacher may teach in the period.
// Teachers with no availability entry are available everywhere.
func (c Constraints) TeacherAvailable(teacherID string, period int) bool {
	periods, ok := c.TeacherAvailability[teacherID]
	if !ok || len(periods) == 0 {
		return true
	}
	for _, p := range periods {
		if p == period {
			return true
		}
	}
	return false
}

// Preferred reports whether the period is a preferred slot for the subject.
func (c Constraints) Preferred(subjectID string, period int) bool {
	for _, p := range c.PreferredSlots[subjectID] {
		if p == period {
			return true
		}
	}
	return false
}

// Avoided reports whether the period should be avoided for the subject.
func (c Constraints) Avoided(subjectID string, period int) bool {
	for _, p := range c.AvoidSlots[subjectID] {
		if p == period {
			return true
		}
	}
	return false
}

// RoomFor returns the room mapped to the subject, if any.
func (c Constraints) RoomFor(subjectID string) *string {
	room, ok := c.RoomBySubject[subjectID]
	if !ok || room == "" {
		return nil
	}
	return &room
}
