package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

// HeuristicFiller uses the same slot-filling pass as GreedyFiller but tries
// assignments in descending credit-hour order, so subjects with more weekly
// hours claim slots first.
type HeuristicFiller struct{}

func (f *HeuristicFiller) Name() string { return AlgorithmHeuristic }

func (f *HeuristicFiller) Run(ctx context.Context, snap *models.Snapshot, cons models.Constraints, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	rng := newRand(opts.Seed)

	entries, warnings := fillSchedule(ctx, snap, cons, opts, rng, creditHourOrder)
	return finalizeResult(f.Name(), entries, 1, snap, cons, opts, warnings), nil
}

func creditHourOrder(_ *rand.Rand, assignments []models.TeacherAssignment) []models.TeacherAssignment {
	ordered := make([]models.TeacherAssignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreditHours != ordered[j].CreditHours {
			return ordered[i].CreditHours > ordered[j].CreditHours
		}
		return ordered[i].SubjectID < ordered[j].SubjectID
	})
	return ordered
}
