package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestHeuristicFillerPrioritisesCreditHours(t *testing.T) {
	snap := &models.Snapshot{
		SchoolID: "school-1",
		Classes:  []models.Class{{ID: "10A", SchoolID: "school-1", Name: "10A"}},
		Assignments: []models.TeacherAssignment{
			{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "bio", CreditHours: 2},
			{ID: "a-2", SchoolID: "school-1", TeacherID: "t-2", ClassID: "10A", SubjectID: "math", CreditHours: 3},
		},
	}
	cons := models.Constraints{MaxPeriodsPerDay: 5}

	result, err := (&HeuristicFiller{}).Run(context.Background(), snap, cons, Options{Days: []int{1}})
	require.NoError(t, err)

	// Highest weekly demand goes first, so math owns the early periods.
	require.Len(t, result.Entries, 5)
	subjects := make([]string, 0, 5)
	for _, e := range result.Entries {
		subjects = append(subjects, e.SubjectID)
	}
	assert.Equal(t, []string{"math", "math", "math", "bio", "bio"}, subjects)
	assert.Equal(t, AlgorithmHeuristic, result.Algorithm)
	assertInvariants(t, result.Entries)
}

func TestHeuristicFillerBreaksTiesBySubject(t *testing.T) {
	snap := &models.Snapshot{
		SchoolID: "school-1",
		Classes:  []models.Class{{ID: "10A", SchoolID: "school-1", Name: "10A"}},
		Assignments: []models.TeacherAssignment{
			{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "chem", CreditHours: 1},
			{ID: "a-2", SchoolID: "school-1", TeacherID: "t-2", ClassID: "10A", SubjectID: "bio", CreditHours: 1},
		},
	}
	cons := models.Constraints{MaxPeriodsPerDay: 2}

	result, err := (&HeuristicFiller{}).Run(context.Background(), snap, cons, Options{Days: []int{1}})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "bio", result.Entries[0].SubjectID)
	assert.Equal(t, "chem", result.Entries[1].SubjectID)
}

func TestHeuristicFillerIsDeterministic(t *testing.T) {
	snap := func() *models.Snapshot {
		return &models.Snapshot{
			SchoolID: "school-1",
			Classes: []models.Class{
				{ID: "10A", SchoolID: "school-1", Name: "10A"},
				{ID: "10B", SchoolID: "school-1", Name: "10B"},
			},
			Assignments: []models.TeacherAssignment{
				{ID: "a-1", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10A", SubjectID: "math", CreditHours: 4},
				{ID: "a-2", SchoolID: "school-1", TeacherID: "t-2", ClassID: "10A", SubjectID: "bio", CreditHours: 3},
				{ID: "a-3", SchoolID: "school-1", TeacherID: "t-1", ClassID: "10B", SubjectID: "math", CreditHours: 4},
			},
		}
	}
	cons := models.Constraints{MaxPeriodsPerDay: 4, BreakPeriods: []int{3}}

	first, err := (&HeuristicFiller{}).Run(context.Background(), snap(), cons, Options{})
	require.NoError(t, err)
	second, err := (&HeuristicFiller{}).Run(context.Background(), snap(), cons, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.Fitness, second.Fitness)
	assertInvariants(t, first.Entries)
}

func TestHeuristicFillerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := (&HeuristicFiller{}).Run(ctx, twoTeacherSnapshot(), models.Constraints{MaxPeriodsPerDay: 5}, Options{Seed: 7})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestHeuristicFillerDoesNotMutateSnapshot(t *testing.T) {
	snap := twoTeacherSnapshot()
	before := make([]models.TeacherAssignment, len(snap.Assignments))
	copy(before, snap.Assignments)

	_, err := (&HeuristicFiller{}).Run(context.Background(), snap, models.Constraints{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, before, snap.Assignments)
}
