package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ConflictReport separates hard violations from advisory warnings. Errors
// invalidate a schedule; warnings degrade its quality only.
type ConflictReport struct {
	Errors   []string
	Warnings []string
}

type assignmentKey struct {
	TeacherID string
	ClassID   string
	SubjectID string
}

// AssignmentSet answers membership queries for qualification triples.
type AssignmentSet map[assignmentKey]struct{}

// NewAssignmentSet indexes the snapshot's assignments for lookup.
func NewAssignmentSet(assignments []models.TeacherAssignment) AssignmentSet {
	set := make(AssignmentSet, len(assignments))
	for _, a := range assignments {
		set[assignmentKey{TeacherID: a.TeacherID, ClassID: a.ClassID, SubjectID: a.SubjectID}] = struct{}{}
	}
	return set
}

// Contains reports whether the triple matches a known assignment.
func (s AssignmentSet) Contains(teacherID, classID, subjectID string) bool {
	_, ok := s[assignmentKey{TeacherID: teacherID, ClassID: classID, SubjectID: subjectID}]
	return ok
}

type slotOwner struct {
	Day    int
	Period int
	Owner  string
}

// CheckConflicts validates a candidate against itself, the committed
// schedule, and the constraint set. Existing entries are assumed internally
// consistent; only collisions involving candidate entries are reported.
func CheckConflicts(candidate, existing []models.ScheduleEntry, cons models.Constraints, assignments AssignmentSet) ConflictReport {
	cons = cons.Normalized()
	report := ConflictReport{}

	teacherBusy := make(map[slotOwner]int)
	roomBusy := make(map[slotOwner]int)
	classBusy := make(map[slotOwner]int)
	for _, e := range existing {
		teacherBusy[slotOwner{e.Day, e.Period, e.TeacherID}]++
		if room := e.RoomValue(); room != "" {
			roomBusy[slotOwner{e.Day, e.Period, room}]++
		}
		classBusy[slotOwner{e.Day, e.Period, e.ClassID}]++
	}

	for _, e := range candidate {
		tKey := slotOwner{e.Day, e.Period, e.TeacherID}
		if teacherBusy[tKey] > 0 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("teacher %s double-booked on %s period %d", e.TeacherID, models.DayName(e.Day), e.Period))
		}
		teacherBusy[tKey]++

		if room := e.RoomValue(); room != "" {
			rKey := slotOwner{e.Day, e.Period, room}
			if roomBusy[rKey] > 0 {
				report.Errors = append(report.Errors,
					fmt.Sprintf("room %s double-booked on %s period %d", room, models.DayName(e.Day), e.Period))
			}
			roomBusy[rKey]++
		}

		cKey := slotOwner{e.Day, e.Period, e.ClassID}
		if classBusy[cKey] > 0 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("class %s double-booked on %s period %d", e.ClassID, models.DayName(e.Day), e.Period))
		}
		classBusy[cKey]++

		if cons.IsBreak(e.Period) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("class %s scheduled during break period %d on %s", e.ClassID, e.Period, models.DayName(e.Day)))
		}
		if e.Period > cons.MaxPeriodsPerDay {
			report.Errors = append(report.Errors,
				fmt.Sprintf("class %s scheduled beyond period limit (%d > %d) on %s", e.ClassID, e.Period, cons.MaxPeriodsPerDay, models.DayName(e.Day)))
		}
		if assignments != nil && !assignments.Contains(e.TeacherID, e.ClassID, e.SubjectID) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("no assignment allows teacher %s to teach %s to class %s", e.TeacherID, e.SubjectID, e.ClassID))
		}
	}

	report.Warnings = append(report.Warnings, subjectSpreadWarnings(candidate)...)
	report.Warnings = append(report.Warnings, subjectCountWarnings(candidate, cons.MaxSubjectsPerDay)...)
	report.Warnings = append(report.Warnings, teacherLoadWarnings(candidate, existing, cons.MaxPeriodsPerDay)...)
	return report
}

// subjectSpreadWarnings flags a subject taught more than once to the same
// class on one day.
func subjectSpreadWarnings(candidate []models.ScheduleEntry) []string {
	type classDaySubject struct {
		ClassID   string
		Day       int
		SubjectID string
	}
	counts := make(map[classDaySubject]int)
	for _, e := range candidate {
		counts[classDaySubject{e.ClassID, e.Day, e.SubjectID}]++
	}

	var warnings []string
	for key, n := range counts {
		if n > 1 {
			warnings = append(warnings,
				fmt.Sprintf("subject %s appears %d times for class %s on %s", key.SubjectID, n, key.ClassID, models.DayName(key.Day)))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// subjectCountWarnings flags class-days carrying more distinct subjects than
// the configured cap. A cap of zero disables the check.
func subjectCountWarnings(candidate []models.ScheduleEntry, maxSubjects int) []string {
	if maxSubjects <= 0 {
		return nil
	}
	type classDay struct {
		ClassID string
		Day     int
	}
	subjects := make(map[classDay]map[string]struct{})
	for _, e := range candidate {
		key := classDay{e.ClassID, e.Day}
		if subjects[key] == nil {
			subjects[key] = make(map[string]struct{})
		}
		subjects[key][e.SubjectID] = struct{}{}
	}

	var warnings []string
	for key, set := range subjects {
		if len(set) > maxSubjects {
			warnings = append(warnings,
				fmt.Sprintf("class %s has %d subjects on %s exceeding the limit of %d", key.ClassID, len(set), models.DayName(key.Day), maxSubjects))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// teacherLoadWarnings flags teachers whose combined daily load exceeds the
// period limit.
func teacherLoadWarnings(candidate, existing []models.ScheduleEntry, maxPerDay int) []string {
	type teacherDay struct {
		TeacherID string
		Day       int
	}
	counts := make(map[teacherDay]int)
	for _, e := range candidate {
		counts[teacherDay{e.TeacherID, e.Day}]++
	}
	for _, e := range existing {
		key := teacherDay{e.TeacherID, e.Day}
		if _, tracked := counts[key]; tracked {
			counts[key]++
		}
	}

	var warnings []string
	for key, n := range counts {
		if n > maxPerDay {
			warnings = append(warnings,
				fmt.Sprintf("teacher %s has %d periods on %s exceeding the limit of %d", key.TeacherID, n, models.DayName(key.Day), maxPerDay))
		}
	}
	sort.Strings(warnings)
	return warnings
}
