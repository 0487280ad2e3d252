package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Supported algorithm names, matching the external request contract.
const (
	AlgorithmGenetic    = "genetic"
	AlgorithmConstraint = "constraint-satisfaction"
	AlgorithmHeuristic  = "heuristic"
)

// Options tune a generation run. Zero values fall back to sensible defaults.
type Options struct {
	MaxIterations  int
	PopulationSize int
	MutationRate   float64
	CrossoverRate  float64
	// Seed makes greedy shuffles and genetic randomness reproducible.
	// Zero selects a time-based seed.
	Seed int64
	// Days lists the 1-based weekdays to schedule; defaults to Monday-Friday.
	Days []int
	// RequireComplete surfaces unfilled weekly demand as warnings.
	RequireComplete bool
	Layout          DayLayout
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.PopulationSize <= 0 {
		o.PopulationSize = 50
	}
	if o.MutationRate <= 0 {
		o.MutationRate = 0.1
	}
	if o.CrossoverRate <= 0 {
		o.CrossoverRate = 0.8
	}
	if len(o.Days) == 0 {
		o.Days = []int{1, 2, 3, 4, 5}
	}
	return o
}

// Result is the outcome of one generation run. A run always produces a
// result; hard conflicts are listed, not raised.
type Result struct {
	Entries    []models.ScheduleEntry `json:"timetable"`
	Fitness    float64                `json:"fitness"`
	Algorithm  string                 `json:"algorithm"`
	Iterations int                    `json:"iterations"`
	Warnings   []string               `json:"warnings"`
	Errors     []string               `json:"errors"`
}

// Strategy produces candidate schedules from an input snapshot.
type Strategy interface {
	Name() string
	Run(ctx context.Context, snap *models.Snapshot, cons models.Constraints, opts Options) (*Result, error)
}

// New returns the strategy registered under the given algorithm name.
func New(algorithm string) (Strategy, error) {
	switch algorithm {
	case AlgorithmGenetic, "":
		return &GeneticOptimizer{}, nil
	case AlgorithmConstraint:
		return &GreedyFiller{}, nil
	case AlgorithmHeuristic:
		return &HeuristicFiller{}, nil
	default:
		return nil, fmt.Errorf("unknown scheduling algorithm %q", algorithm)
	}
}

// sortEntries orders entries by class, day, period so candidates have a
// canonical form for crossover and stable output.
func sortEntries(entries []models.ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Period < b.Period
	})
}

// stampTimes fills the derived wall-clock fields on every entry.
func stampTimes(entries []models.ScheduleEntry, layout DayLayout) {
	for i := range entries {
		entries[i].StartTime = layout.StartTime(entries[i].Period)
		entries[i].EndTime = layout.EndTime(entries[i].Period)
	}
}

func finalizeResult(name string, entries []models.ScheduleEntry, iterations int, snap *models.Snapshot, cons models.Constraints, opts Options, extraWarnings []string) *Result {
	sortEntries(entries)
	stampTimes(entries, opts.Layout)

	fitness, report := Evaluate(entries, snap.Existing, cons, NewAssignmentSet(snap.Assignments))
	warnings := append(report.Warnings, extraWarnings...)

	return &Result{
		Entries:    entries,
		Fitness:    fitness,
		Algorithm:  name,
		Iterations: iterations,
		Warnings:   warnings,
		Errors:     report.Errors,
	}
}
