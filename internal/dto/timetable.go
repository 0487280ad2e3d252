package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// OptimizationParams select and tune the generation strategy.
type OptimizationParams struct {
	Algorithm      string  `json:"algorithm" validate:"omitempty,oneof=genetic constraint-satisfaction heuristic"`
	MaxIterations  int     `json:"maxIterations" validate:"omitempty,min=1,max=10000"`
	PopulationSize int     `json:"populationSize" validate:"omitempty,min=1,max=500"`
	MutationRate   float64 `json:"mutationRate" validate:"omitempty,gt=0,lte=1"`
	CrossoverRate  float64 `json:"crossoverRate" validate:"omitempty,gt=0,lte=1"`
	Seed           int64   `json:"seed"`
}

// GenerateTimetableRequest asks the engine to build a timetable for the
// school, optionally narrowed to specific classes.
type GenerateTimetableRequest struct {
	SchoolID        string              `json:"schoolId" validate:"required"`
	ClassIDs        []string            `json:"classIds" validate:"omitempty,dive,required"`
	Constraints     *models.Constraints `json:"constraints"`
	Optimization    *OptimizationParams `json:"optimization"`
	RequireComplete *bool               `json:"requireComplete"`
}

// GenerationResponse is the outcome of one run.
type GenerationResponse struct {
	Timetable  []models.ScheduleEntry `json:"timetable"`
	Fitness    float64                `json:"fitness"`
	Algorithm  string                 `json:"algorithm"`
	Iterations int                    `json:"iterations"`
	Warnings   []string               `json:"warnings"`
	Errors     []string               `json:"errors"`
}

// SubmitRunResponse acknowledges an asynchronous generation run.
type SubmitRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// RunStatusResponse reports the state of an asynchronous run; Result is set
// once the run completes.
type RunStatusResponse struct {
	RunID       string              `json:"runId"`
	Status      string              `json:"status"`
	Algorithm   string              `json:"algorithm"`
	SchoolID    string              `json:"schoolId"`
	SubmittedAt time.Time           `json:"submittedAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	Result      *GenerationResponse `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// SaveTimetableRequest persists a completed run's best candidate.
type SaveTimetableRequest struct {
	RunID string `json:"runId" validate:"required"`
}

// SaveTimetableResponse reports how many entries were written.
type SaveTimetableResponse struct {
	Count int `json:"count"`
}

// TimetableQuery filters the schedule read path.
type TimetableQuery struct {
	SchoolID  string `form:"schoolId" validate:"required"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	SubjectID string `form:"subjectId"`
	Day       int    `form:"day"`
	Period    int    `form:"period"`
	Room      string `form:"room"`
	Expand    string `form:"expand"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}
