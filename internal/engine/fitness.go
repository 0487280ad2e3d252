package engine

import "github.com/noah-isme/timetable-api/internal/models"

// Fitness scores a candidate on a 0-100 scale. Soft-constraint bonuses for
// subject spread, teacher workload and slot preference are summed, then hard
// conflicts are penalised at 10 points each. The function is stateless:
// identical candidates always score identically.
func Fitness(candidate []models.ScheduleEntry, cons models.Constraints, hardErrors int) float64 {
	score := distributionScore(candidate) + workloadScore(candidate) + preferenceScore(candidate, cons)
	score -= 10 * float64(hardErrors)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Evaluate runs the conflict checker and fitness function in one pass.
func Evaluate(candidate, existing []models.ScheduleEntry, cons models.Constraints, assignments AssignmentSet) (float64, ConflictReport) {
	report := CheckConflicts(candidate, existing, cons, assignments)
	return Fitness(candidate, cons, len(report.Errors)), report
}

func distributionScore(candidate []models.ScheduleEntry) float64 {
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

	var score float64
	for _, distinct := range subjects {
		switch n := len(distinct); {
		case n >= 4 && n <= 6:
			score += 5
		case n < 3:
			score -= 3
		case n > 7:
			score -= 2
		}
	}
	return score
}

func workloadScore(candidate []models.ScheduleEntry) float64 {
	type teacherDay struct {
		TeacherID string
		Day       int
	}
	periods := make(map[teacherDay]int)
	for _, e := range candidate {
		periods[teacherDay{e.TeacherID, e.Day}]++
	}

	var score float64
	for _, n := range periods {
		switch {
		case n >= 3 && n <= 6:
			score += 3
		case n > 7:
			score -= 5
		case n < 2:
			score -= 2
		}
	}
	return score
}

func preferenceScore(candidate []models.ScheduleEntry, cons models.Constraints) float64 {
	var score float64
	for _, e := range candidate {
		if cons.Preferred(e.SubjectID, e.Period) {
			score += 2
		}
	}
	return score
}
