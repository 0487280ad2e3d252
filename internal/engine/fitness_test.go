package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestFitnessDistributionBand(t *testing.T) {
	// Four distinct subjects on one day land in the rewarded band.
	candidate := []models.ScheduleEntry{
		entry("10A", "math", "t-1", 1, 1),
		entry("10A", "bio", "t-1", 1, 2),
		entry("10A", "chem", "t-1", 1, 3),
		entry("10A", "hist", "t-1", 1, 4),
	}

	// distribution +5, workload +3 (four periods), no preferences.
	assert.InDelta(t, 8.0, Fitness(candidate, models.Constraints{}, 0), 1e-9)
}

func TestFitnessSparseDayPenalised(t *testing.T) {
	candidate := []models.ScheduleEntry{
		entry("10A", "math", "t-1", 1, 1),
	}

	// distribution -3 (fewer than three subjects), workload -2 (single
	// period), clamped at zero.
	assert.Zero(t, Fitness(candidate, models.Constraints{}, 0))
}

func TestFitnessPreferredSlotsRewarded(t *testing.T) {
	cons := models.Constraints{
		PreferredSlots: map[string][]int{"math": {1}, "bio": {2}},
	}
	candidate := []models.ScheduleEntry{
		entry("10A", "math", "t-1", 1, 1),
		entry("10A", "bio", "t-1", 1, 2),
		entry("10A", "chem", "t-1", 1, 3),
		entry("10A", "hist", "t-1", 1, 4),
	}

	withPref := Fitness(candidate, cons, 0)
	withoutPref := Fitness(candidate, models.Constraints{}, 0)
	assert.InDelta(t, 4.0, withPref-withoutPref, 1e-9)
}

func TestFitnessHardErrorPenalty(t *testing.T) {
	var candidate []models.ScheduleEntry
	subjects := []string{"math", "bio", "chem", "hist", "geo"}
	for day := 1; day <= 5; day++ {
		for p, subject := range subjects {
			candidate = append(candidate, entry("10A", subject, "t-1", day, p+1))
		}
	}

	// distribution 5x5, workload 5x3, so each hard error subtracts a full
	// 10 points without hitting the lower clamp.
	assert.InDelta(t, 40.0, Fitness(candidate, models.Constraints{}, 0), 1e-9)
	assert.InDelta(t, 30.0, Fitness(candidate, models.Constraints{}, 1), 1e-9)
	assert.InDelta(t, 10.0, Fitness(candidate, models.Constraints{}, 3), 1e-9)
}

func TestFitnessClampedToRange(t *testing.T) {
	var busy []models.ScheduleEntry
	subjects := []string{"math", "bio", "chem", "hist", "geo"}
	for day := 1; day <= 5; day++ {
		for p, subject := range subjects {
			busy = append(busy, entry("10A", subject, "t-1", day, p+1))
		}
	}

	assert.LessOrEqual(t, Fitness(busy, models.Constraints{}, 0), 100.0)
	assert.Zero(t, Fitness(busy, models.Constraints{}, 50))
}

func TestFitnessDeterministic(t *testing.T) {
	cons := models.Constraints{PreferredSlots: map[string][]int{"bio": {2}}}
	candidate := []models.ScheduleEntry{
		entry("10A", "math", "t-1", 1, 1),
		entry("10A", "bio", "t-2", 1, 2),
		entry("10B", "math", "t-1", 2, 1),
	}

	first := Fitness(candidate, cons, 1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fitness(candidate, cons, 1))
	}
}

func TestEvaluateCombinesCheckerAndScore(t *testing.T) {
	candidate := []models.ScheduleEntry{
		entry("10A", "math", "t-1", 1, 1),
		entry("10B", "math", "t-1", 1, 1),
	}

	score, report := Evaluate(candidate, nil, models.Constraints{}, nil)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, Fitness(candidate, models.Constraints{}, 1), score)
}
