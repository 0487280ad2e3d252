package engine

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/noah-isme/timetable-api/internal/models"
)

const (
	// initialFillProbability leaves roughly 30% of slots empty in random
	// candidates, seeding the search with exploitable sparsity.
	initialFillProbability = 0.7
	elitismFraction        = 0.1
	tournamentSize         = 3
	targetFitness          = 95.0
)

// GeneticOptimizer evolves a population of candidate schedules through
// tournament selection, single-point crossover and per-entry mutation.
// It always returns the best candidate found, even with unresolved
// conflicts; callers judge acceptability by fitness and the error list.
type GeneticOptimizer struct{}

type individual struct {
	entries []models.ScheduleEntry
	fitness float64
}

func (g *GeneticOptimizer) Name() string { return AlgorithmGenetic }

func (g *GeneticOptimizer) Run(ctx context.Context, snap *models.Snapshot, cons models.Constraints, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	cons = cons.Normalized()
	rng := newRand(opts.Seed)

	byClass := snap.AssignmentsByClass()
	assignments := NewAssignmentSet(snap.Assignments)
	validPeriods := schedulablePeriods(cons)

	population := make([]individual, opts.PopulationSize)
	for i := range population {
		population[i] = individual{entries: g.randomCandidate(rng, snap, byClass, cons, opts)}
	}
	evaluatePopulation(population, snap.Existing, cons, assignments)
	sortPopulation(population)

	iterations := 0
	for gen := 0; gen < opts.MaxIterations; gen++ {
		if ctx.Err() != nil {
			break
		}
		population = g.nextGeneration(rng, population, cons, opts, validPeriods)
		evaluatePopulation(population, snap.Existing, cons, assignments)
		sortPopulation(population)
		iterations = gen + 1
		if population[0].fitness > targetFitness {
			break
		}
	}

	best := population[0]
	return finalizeResult(g.Name(), best.entries, iterations, snap, cons, opts, nil), nil
}

// randomCandidate fills each schedulable slot with probability
// initialFillProbability using a uniformly random matching assignment.
func (g *GeneticOptimizer) randomCandidate(rng *rand.Rand, snap *models.Snapshot, byClass map[string][]models.TeacherAssignment, cons models.Constraints, opts Options) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	for _, class := range snap.Classes {
		assignments := byClass[class.ID]
		if len(assignments) == 0 {
			continue
		}
		for _, day := range opts.Days {
			for period := 1; period <= cons.MaxPeriodsPerDay; period++ {
				if cons.IsBreak(period) {
					continue
				}
				if rng.Float64() >= initialFillProbability {
					continue
				}
				a, ok := pickAvailable(rng, assignments, cons, period)
				if !ok {
					continue
				}
				entries = append(entries, models.ScheduleEntry{
					SchoolID:  snap.SchoolID,
					ClassID:   class.ID,
					SubjectID: a.SubjectID,
					TeacherID: a.TeacherID,
					Day:       day,
					Period:    period,
					Room:      cons.RoomFor(a.SubjectID),
				})
			}
		}
	}
	return entries
}

func (g *GeneticOptimizer) nextGeneration(rng *rand.Rand, population []individual, cons models.Constraints, opts Options, validPeriods []int) []individual {
	eliteCount := int(float64(len(population)) * elitismFraction)
	if eliteCount < 1 {
		eliteCount = 1
	}

	next := make([]individual, 0, len(population))
	for i := 0; i < eliteCount && i < len(population); i++ {
		next = append(next, population[i])
	}

	for len(next) < len(population) {
		parentA := tournament(rng, population)
		parentB := tournament(rng, population)
		child := crossover(rng, parentA, parentB, opts.CrossoverRate)
		mutate(rng, child, cons, opts, validPeriods)
		next = append(next, individual{entries: child})
	}
	return next
}

// tournament picks the fittest of three random candidates.
func tournament(rng *rand.Rand, population []individual) individual {
	best := population[rng.Intn(len(population))]
	for i := 1; i < tournamentSize; i++ {
		challenger := population[rng.Intn(len(population))]
		if challenger.fitness > best.fitness {
			best = challenger
		}
	}
	return best
}

// crossover takes a prefix of parent A and appends parent B's entries whose
// (class, day, period) key is still free. With probability 1-rate the child
// is a plain clone of parent A.
func crossover(rng *rand.Rand, parentA, parentB individual, rate float64) []models.ScheduleEntry {
	if rng.Float64() >= rate || len(parentA.entries) == 0 {
		return cloneEntries(parentA.entries)
	}

	point := rng.Intn(len(parentA.entries) + 1)
	child := cloneEntries(parentA.entries[:point])

	taken := make(map[slotOwner]struct{}, len(child))
	for _, e := range child {
		taken[slotOwner{e.Day, e.Period, e.ClassID}] = struct{}{}
	}
	for _, e := range parentB.entries {
		key := slotOwner{e.Day, e.Period, e.ClassID}
		if _, exists := taken[key]; exists {
			continue
		}
		taken[key] = struct{}{}
		child = append(child, e)
	}
	return child
}

// mutate reassigns day or period uniformly at random per entry with
// probability MutationRate. Moves stay within the valid range and the
// entry's teacher availability; conflicts the move may introduce are left
// for the fitness penalty.
func mutate(rng *rand.Rand, entries []models.ScheduleEntry, cons models.Constraints, opts Options, validPeriods []int) {
	for i := range entries {
		if rng.Float64() >= opts.MutationRate {
			continue
		}
		if rng.Intn(2) == 0 {
			entries[i].Day = opts.Days[rng.Intn(len(opts.Days))]
		} else if periods := availablePeriods(cons, entries[i].TeacherID, validPeriods); len(periods) > 0 {
			entries[i].Period = periods[rng.Intn(len(periods))]
		}
	}
}

// pickAvailable picks a uniformly random assignment whose teacher may teach
// in the period, scanning from a random offset. Returns false when every
// teacher is blocked for the period.
func pickAvailable(rng *rand.Rand, assignments []models.TeacherAssignment, cons models.Constraints, period int) (models.TeacherAssignment, bool) {
	offset := rng.Intn(len(assignments))
	for i := range assignments {
		a := assignments[(offset+i)%len(assignments)]
		if cons.TeacherAvailable(a.TeacherID, period) {
			return a, true
		}
	}
	return models.TeacherAssignment{}, false
}

func availablePeriods(cons models.Constraints, teacherID string, validPeriods []int) []int {
	periods := make([]int, 0, len(validPeriods))
	for _, p := range validPeriods {
		if cons.TeacherAvailable(teacherID, p) {
			periods = append(periods, p)
		}
	}
	return periods
}

// evaluatePopulation scores candidates concurrently; they are independent
// and share only the read-only snapshot.
func evaluatePopulation(population []individual, existing []models.ScheduleEntry, cons models.Constraints, assignments AssignmentSet) {
	var wg sync.WaitGroup
	for i := range population {
		wg.Add(1)
		go func(ind *individual) {
			defer wg.Done()
			ind.fitness, _ = Evaluate(ind.entries, existing, cons, assignments)
		}(&population[i])
	}
	wg.Wait()
}

func sortPopulation(population []individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

func schedulablePeriods(cons models.Constraints) []int {
	var periods []int
	for p := 1; p <= cons.MaxPeriodsPerDay; p++ {
		if !cons.IsBreak(p) {
			periods = append(periods, p)
		}
	}
	return periods
}

func cloneEntries(entries []models.ScheduleEntry) []models.ScheduleEntry {
	cloned := make([]models.ScheduleEntry, len(entries))
	copy(cloned, entries)
	return cloned
}
