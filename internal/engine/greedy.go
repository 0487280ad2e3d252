package engine

import (
	"context"
	"math/rand"

	"github.com/noah-isme/timetable-api/internal/models"
)

// GreedyFiller is the constraint-satisfaction strategy: one deterministic
// pass over the slots, shuffling each class's assignments per slot and
// keeping the first conflict-free pick. Produces exactly one candidate.
type GreedyFiller struct{}

func (f *GreedyFiller) Name() string { return AlgorithmConstraint }

func (f *GreedyFiller) Run(ctx context.Context, snap *models.Snapshot, cons models.Constraints, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	rng := newRand(opts.Seed)

	entries, warnings := fillSchedule(ctx, snap, cons, opts, rng, shuffleOrder)
	return finalizeResult(f.Name(), entries, 1, snap, cons, opts, warnings), nil
}

func shuffleOrder(rng *rand.Rand, assignments []models.TeacherAssignment) []models.TeacherAssignment {
	shuffled := make([]models.TeacherAssignment, len(assignments))
	copy(shuffled, assignments)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
