package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// occupancy tracks which teachers, rooms and classes are busy per slot while
// a filler builds its single candidate.
type occupancy struct {
	teacher map[slotOwner]bool
	room    map[slotOwner]bool
	class   map[slotOwner]bool
}

func newOccupancy(existing []models.ScheduleEntry) *occupancy {
	o := &occupancy{
		teacher: make(map[slotOwner]bool),
		room:    make(map[slotOwner]bool),
		class:   make(map[slotOwner]bool),
	}
	for _, e := range existing {
		o.reserve(e)
	}
	return o
}

func (o *occupancy) free(e models.ScheduleEntry) bool {
	if o.teacher[slotOwner{e.Day, e.Period, e.TeacherID}] {
		return false
	}
	if room := e.RoomValue(); room != "" && o.room[slotOwner{e.Day, e.Period, room}] {
		return false
	}
	return !o.class[slotOwner{e.Day, e.Period, e.ClassID}]
}

func (o *occupancy) reserve(e models.ScheduleEntry) {
	o.teacher[slotOwner{e.Day, e.Period, e.TeacherID}] = true
	if room := e.RoomValue(); room != "" {
		o.room[slotOwner{e.Day, e.Period, room}] = true
	}
	o.class[slotOwner{e.Day, e.Period, e.ClassID}] = true
}

// slotOrder decides which of a class's assignments to try first at a slot.
type slotOrder func(rng *rand.Rand, assignments []models.TeacherAssignment) []models.TeacherAssignment

// fillSchedule walks slots in deterministic order (class grouping, then day,
// then period, skipping breaks) and places the first assignment that fits.
// Assignments with positive credit hours are capped at that weekly count;
// a slot with no fitting assignment stays empty. Cancellation is checked
// between classes and returns the partial candidate built so far.
func fillSchedule(ctx context.Context, snap *models.Snapshot, cons models.Constraints, opts Options, rng *rand.Rand, order slotOrder) ([]models.ScheduleEntry, []string) {
	cons = cons.Normalized()
	byClass := snap.AssignmentsByClass()
	occ := newOccupancy(snap.Existing)

	remaining := make(map[string]int, len(snap.Assignments))
	for _, a := range snap.Assignments {
		remaining[a.ID] = a.CreditHours
	}

	var entries []models.ScheduleEntry
	for _, class := range snap.Classes {
		if ctx.Err() != nil {
			break
		}
		assignments := byClass[class.ID]
		if len(assignments) == 0 {
			continue
		}
		for _, day := range opts.Days {
			for period := 1; period <= cons.MaxPeriodsPerDay; period++ {
				if cons.IsBreak(period) {
					continue
				}
				ordered := order(rng, assignments)
				entry, ok := pickAssignment(ordered, remaining, cons, occ, snap.SchoolID, class.ID, day, period)
				if !ok {
					continue
				}
				occ.reserve(entry)
				entries = append(entries, entry)
			}
		}
	}

	var warnings []string
	if opts.RequireComplete {
		for _, a := range snap.Assignments {
			if a.CreditHours > 0 && remaining[a.ID] > 0 {
				warnings = append(warnings, fmt.Sprintf(
					"unfilled demand: %d of %d weekly lessons for subject %s in class %s",
					remaining[a.ID], a.CreditHours, a.SubjectID, a.ClassID))
			}
		}
	}
	return entries, warnings
}

// pickAssignment tries the ordered assignments twice: first avoiding
// subject-specific avoid slots, then allowing them as a fallback.
func pickAssignment(ordered []models.TeacherAssignment, remaining map[string]int, cons models.Constraints, occ *occupancy, schoolID, classID string, day, period int) (models.ScheduleEntry, bool) {
	for _, allowAvoided := range []bool{false, true} {
		for _, a := range ordered {
			if !allowAvoided && cons.Avoided(a.SubjectID, period) {
				continue
			}
			if a.CreditHours > 0 && remaining[a.ID] <= 0 {
				continue
			}
			if !cons.TeacherAvailable(a.TeacherID, period) {
				continue
			}
			entry := models.ScheduleEntry{
				SchoolID:  schoolID,
				ClassID:   classID,
				SubjectID: a.SubjectID,
				TeacherID: a.TeacherID,
				Day:       day,
				Period:    period,
				Room:      cons.RoomFor(a.SubjectID),
			}
			if !occ.free(entry) {
				continue
			}
			if a.CreditHours > 0 {
				remaining[a.ID]--
			}
			return entry, true
		}
	}
	return models.ScheduleEntry{}, false
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
