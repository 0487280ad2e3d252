package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func twoTeacherSnapshot() *models.Snapshot {
	return &models.Snapshot{
		SchoolID: "school-1",
		Classes:  []models.Class{{ID: "10A", SchoolID: "school-1", Name: "10A"}},
		Assignments: []models.TeacherAssignment{
			{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "math", CreditHours: 1},
			{ID: "a-2", SchoolID: "school-1", TeacherID: "t-2", ClassID: "10A", SubjectID: "bio", CreditHours: 1},
		},
	}
}

// assertInvariants checks the three double-booking rules on a candidate.
func assertInvariants(t *testing.T, entries []models.ScheduleEntry) {
	t.Helper()
	teacher := make(map[slotOwner]bool)
	room := make(map[slotOwner]bool)
	class := make(map[slotOwner]bool)
	for _, e := range entries {
		tKey := slotOwner{e.Day, e.Period, e.TeacherID}
		assert.False(t, teacher[tKey], "teacher %s double-booked day %d period %d", e.TeacherID, e.Day, e.Period)
		teacher[tKey] = true

		if r := e.RoomValue(); r != "" {
			rKey := slotOwner{e.Day, e.Period, r}
			assert.False(t, room[rKey], "room %s double-booked day %d period %d", r, e.Day, e.Period)
			room[rKey] = true
		}

		cKey := slotOwner{e.Day, e.Period, e.ClassID}
		assert.False(t, class[cKey], "class %s double-booked day %d period %d", e.ClassID, e.Day, e.Period)
		class[cKey] = true
	}
}

func TestGreedyFillerPlacesAllDemand(t *testing.T) {
	snap := twoTeacherSnapshot()
	cons := models.Constraints{MaxPeriodsPerDay: 5}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 42})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Empty(t, result.Errors)
	assert.Equal(t, AlgorithmConstraint, result.Algorithm)
	assert.Equal(t, 1, result.Iterations)
	assertInvariants(t, result.Entries)

	subjects := map[string]int{}
	for _, e := range result.Entries {
		subjects[e.SubjectID]++
		assert.Equal(t, "school-1", e.SchoolID)
		assert.Equal(t, "10A", e.ClassID)
	}
	assert.Equal(t, map[string]int{"math": 1, "bio": 1}, subjects)
}

func TestGreedyFillerStampsTimes(t *testing.T) {
	snap := twoTeacherSnapshot()
	cons := models.Constraints{MaxPeriodsPerDay: 5}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 42})
	require.NoError(t, err)

	var layout DayLayout
	for _, e := range result.Entries {
		assert.Equal(t, layout.StartTime(e.Period), e.StartTime)
		assert.Equal(t, layout.EndTime(e.Period), e.EndTime)
	}
}

func TestGreedyFillerSeededRunsAreIdentical(t *testing.T) {
	cons := models.Constraints{MaxPeriodsPerDay: 5, BreakPeriods: []int{3}}
	opts := Options{Seed: 7}

	first, err := (&GreedyFiller{}).Run(context.Background(), twoTeacherSnapshot(), cons, opts)
	require.NoError(t, err)
	second, err := (&GreedyFiller{}).Run(context.Background(), twoTeacherSnapshot(), cons, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.Fitness, second.Fitness)
}

func TestGreedyFillerSkipsBreaksAndLimits(t *testing.T) {
	snap := twoTeacherSnapshot()
	snap.Assignments[0].CreditHours = 0 // unlimited, fills every open slot
	snap.Assignments[1].CreditHours = 0
	cons := models.Constraints{MaxPeriodsPerDay: 4, BreakPeriods: []int{2}}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 3, Days: []int{1}})
	require.NoError(t, err)

	require.NotEmpty(t, result.Entries)
	for _, e := range result.Entries {
		assert.NotEqual(t, 2, e.Period)
		assert.LessOrEqual(t, e.Period, 4)
		assert.Equal(t, 1, e.Day)
	}
}

func TestGreedyFillerRespectsExistingSchedule(t *testing.T) {
	// A second class already holds the only shared teacher at (Monday, 1).
	snap := &models.Snapshot{
		SchoolID: "school-1",
		Classes:  []models.Class{{ID: "10A", SchoolID: "school-1", Name: "10A"}},
		Assignments: []models.TeacherAssignment{
			{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "math", CreditHours: 1},
		},
		Existing: []models.ScheduleEntry{
			{SchoolID: "school-1", ClassID: "10B", SubjectID: "math", TeacherID: "t-1", Day: 1, Period: 1},
		},
	}
	cons := models.Constraints{MaxPeriodsPerDay: 1}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 1, Days: []int{1}})
	require.NoError(t, err)

	// The only slot is taken, so nothing is placed rather than double-booked.
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Errors)
}

func TestGreedyFillerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := (&GreedyFiller{}).Run(ctx, twoTeacherSnapshot(), models.Constraints{MaxPeriodsPerDay: 5}, Options{Seed: 7})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestGreedyFillerReportsUnfilledDemand(t *testing.T) {
	snap := &models.Snapshot{
		SchoolID: "school-1",
		Classes:  []models.Class{{ID: "10A", SchoolID: "school-1", Name: "10A"}},
		Assignments: []models.TeacherAssignment{
			{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "math", CreditHours: 5},
		},
	}
	cons := models.Constraints{MaxPeriodsPerDay: 2}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{
		Seed:            1,
		Days:            []int{1},
		RequireComplete: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "unfilled demand: 3 of 5 weekly lessons for subject math in class 10A")
}

func TestGreedyFillerHonorsTeacherAvailability(t *testing.T) {
	snap := twoTeacherSnapshot()
	cons := models.Constraints{
		MaxPeriodsPerDay:    3,
		TeacherAvailability: map[string][]int{"t-1": {3}},
	}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 9, Days: []int{1}})
	require.NoError(t, err)

	for _, e := range result.Entries {
		if e.TeacherID == "t-1" {
			assert.Equal(t, 3, e.Period)
		}
	}
}

func TestGreedyFillerAssignsConfiguredRooms(t *testing.T) {
	snap := twoTeacherSnapshot()
	cons := models.Constraints{
		MaxPeriodsPerDay: 5,
		RoomBySubject:    map[string]string{"bio": "lab-2"},
	}

	result, err := (&GreedyFiller{}).Run(context.Background(), snap, cons, Options{Seed: 4})
	require.NoError(t, err)

	for _, e := range result.Entries {
		switch e.SubjectID {
		case "bio":
			assert.Equal(t, "lab-2", e.RoomValue())
		default:
			assert.Nil(t, e.Room)
		}
	}
}
