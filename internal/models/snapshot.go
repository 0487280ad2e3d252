package models

// Snapshot is the read-only point-in-time view of scheduling inputs a
// generation run operates on. Existing holds committed entries outside the
// regenerated class scope; it is consulted for conflicts, never mutated.
type Snapshot struct {
	SchoolID    string              `json:"school_id"`
	Classes     []Class             `json:"classes"`
	Assignments []TeacherAssignment `json:"assignments"`
	Existing    []ScheduleEntry     `json:"existing"`
}

// AssignmentsByClass groups assignments keyed by class ID, preserving order.
func (s *Snapshot) AssignmentsByClass() map[string][]TeacherAssignment {
	grouped := make(map[string][]TeacherAssignment)
	for _, a := range s.Assignments {
		grouped[a.ClassID] = append(grouped[a.ClassID], a)
	}
	return grouped
}

// ClassIDs returns the identifiers of all classes in scope.
func (s *Snapshot) ClassIDs() []string {
	ids := make([]string, 0, len(s.Classes))
	for _, c := range s.Classes {
		ids = append(ids, c.ID)
	}
	return ids
}
