package service

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/engine"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/config"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// Run lifecycle states.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

type timetableRepository interface {
	FetchSnapshot(ctx context.Context, schoolID string, classIDs []string) (*models.Snapshot, error)
	Replace(ctx context.Context, entries []models.ScheduleEntry, schoolID string, classIDs []string, actorID string) (int, error)
	Query(ctx context.Context, schoolID string, filter models.ScheduleFilter, relations models.RelationSet) ([]models.ScheduleEntryDetail, int, error)
}

type snapshotCache interface {
	Get(ctx context.Context, schoolID string) (*models.Snapshot, error)
	Set(ctx context.Context, snap *models.Snapshot) error
	Invalidate(ctx context.Context, schoolID string) error
}

type runObserver interface {
	ObserveRun(algorithm, status string, duration time.Duration, fitness float64)
}

// TimetableService orchestrates generation runs: it validates requests,
// loads input snapshots, dispatches strategies onto a worker pool and
// persists accepted candidates.
type TimetableService struct {
	repo      timetableRepository
	cache     snapshotCache
	metrics   runObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.GeneratorConfig
	runs      *runStore
	queue     *jobs.Queue
}

// NewTimetableService wires the generation pipeline.
func NewTimetableService(repo timetableRepository, cache snapshotCache, metrics runObserver, validate *validator.Validate, logger *zap.Logger, cfg config.GeneratorConfig) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 30 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}

	s := &TimetableService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		runs:      newRunStore(cfg.RunTTL),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.executeRun, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the generation worker pool.
func (s *TimetableService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *TimetableService) Stop() {
	s.queue.Stop()
}

// Submit queues an asynchronous generation run and returns its identifier.
// The caller polls GetRun for progress and the final result.
func (s *TimetableService) Submit(ctx context.Context, req dto.GenerateTimetableRequest, actorID string) (*dto.SubmitRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if _, err := engine.New(s.algorithmOf(req)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnknownAlgorithm, err.Error())
	}

	run := &generationRun{
		ID:          uuid.NewString(),
		SchoolID:    req.SchoolID,
		Algorithm:   s.algorithmOf(req),
		Status:      RunStatusPending,
		SubmittedBy: actorID,
		SubmittedAt: time.Now().UTC(),
		request:     req,
	}
	s.runs.Save(run)

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: "generate", Payload: run.ID}); err != nil {
		s.runs.Delete(run.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation run")
	}

	return &dto.SubmitRunResponse{RunID: run.ID, Status: run.Status}, nil
}

// GetRun reports run progress; the result is attached once completed.
func (s *TimetableService) GetRun(ctx context.Context, runID string) (*dto.RunStatusResponse, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired")
	}
	resp := &dto.RunStatusResponse{
		RunID:       run.ID,
		Status:      run.Status,
		Algorithm:   run.Algorithm,
		SchoolID:    run.SchoolID,
		SubmittedAt: run.SubmittedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Err,
	}
	if run.Result != nil {
		resp.Result = toGenerationResponse(run.Result)
	}
	return resp, nil
}

// Generate runs a strategy synchronously and returns its best candidate.
// Suited to preview calls with small budgets; production traffic should use
// Submit and poll.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	result, _, err := s.runStrategy(ctx, req)
	if err != nil {
		return nil, err
	}
	return toGenerationResponse(result), nil
}

// Save persists a completed run's candidate, replacing any prior schedule
// for the same class scope, and invalidates the snapshot cache.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest, actorID string) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	run, ok := s.runs.Get(req.RunID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired")
	}
	if run.Status != RunStatusCompleted || run.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrRunNotReady, "generation run has not completed")
	}

	count, err := s.repo.Replace(ctx, run.Result.Entries, run.SchoolID, run.Scope, actorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedule")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, run.SchoolID); err != nil {
			s.logger.Sugar().Warnw("snapshot cache invalidation failed", "school_id", run.SchoolID, "error", err)
		}
	}

	s.runs.Delete(run.ID)
	return &dto.SaveTimetableResponse{Count: count}, nil
}

// Query serves the schedule read path with typed relation expansion.
func (s *TimetableService) Query(ctx context.Context, q dto.TimetableQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error) {
	if q.SchoolID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}

	filter := models.ScheduleFilter{
		ClassID:   q.ClassID,
		SubjectID: q.SubjectID,
		TeacherID: q.TeacherID,
		Day:       q.Day,
		Period:    q.Period,
		Room:      q.Room,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	entries, total, err := s.repo.Query(ctx, q.SchoolID, filter, parseRelations(q.Expand))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query schedule")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	pagination := &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: (total + size - 1) / size,
	}
	return entries, pagination, nil
}

func (s *TimetableService) executeRun(ctx context.Context, job jobs.Job) error {
	runID, _ := job.Payload.(string)
	run, ok := s.runs.Get(runID)
	if !ok {
		s.logger.Sugar().Warnw("generation run vanished before execution", "run_id", runID)
		return nil
	}

	s.runs.Update(runID, func(r *generationRun) {
		r.Status = RunStatusRunning
	})

	started := time.Now()
	result, scope, err := s.runStrategy(ctx, run.request)
	finished := time.Now().UTC()

	if err != nil {
		s.runs.Update(runID, func(r *generationRun) {
			r.Status = RunStatusFailed
			r.Err = appErrors.FromError(err).Message
			r.CompletedAt = &finished
		})
		if s.metrics != nil {
			s.metrics.ObserveRun(run.Algorithm, RunStatusFailed, time.Since(started), 0)
		}
		s.logger.Sugar().Errorw("generation run failed", "run_id", runID, "school_id", run.SchoolID, "error", err)
		return nil
	}

	s.runs.Update(runID, func(r *generationRun) {
		r.Status = RunStatusCompleted
		r.Result = result
		r.Scope = scope
		r.CompletedAt = &finished
	})
	if s.metrics != nil {
		s.metrics.ObserveRun(run.Algorithm, RunStatusCompleted, time.Since(started), result.Fitness)
	}
	s.logger.Sugar().Infow("generation run completed",
		"run_id", runID,
		"school_id", run.SchoolID,
		"algorithm", result.Algorithm,
		"fitness", result.Fitness,
		"iterations", result.Iterations,
		"entries", len(result.Entries),
		"hard_conflicts", len(result.Errors),
	)
	return nil
}

// runStrategy loads the snapshot and executes the selected strategy under
// the configured deadline. Returns the result and the class scope the
// snapshot resolved to.
func (s *TimetableService) runStrategy(ctx context.Context, req dto.GenerateTimetableRequest) (*engine.Result, []string, error) {
	snap, err := s.loadSnapshot(ctx, req.SchoolID, req.ClassIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling snapshot")
	}
	if len(snap.Classes) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classes found for the requested scope")
	}
	if len(snap.Assignments) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no teacher assignments defined for the requested scope")
	}

	strategy, err := engine.New(s.algorithmOf(req))
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnknownAlgorithm, err.Error())
	}

	var cons models.Constraints
	if req.Constraints != nil {
		cons = *req.Constraints
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	result, err := strategy.Run(runCtx, snap, cons, s.optionsOf(req))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation strategy failed")
	}
	return result, snap.ClassIDs(), nil
}

// loadSnapshot consults the cache for whole-school scopes; class-scoped
// snapshots always hit the repository.
func (s *TimetableService) loadSnapshot(ctx context.Context, schoolID string, classIDs []string) (*models.Snapshot, error) {
	if s.cache != nil && len(classIDs) == 0 {
		if snap, err := s.cache.Get(ctx, schoolID); err != nil {
			s.logger.Sugar().Warnw("snapshot cache read failed", "school_id", schoolID, "error", err)
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := s.repo.FetchSnapshot(ctx, schoolID, classIDs)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(classIDs) == 0 {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.logger.Sugar().Warnw("snapshot cache write failed", "school_id", schoolID, "error", err)
		}
	}
	return snap, nil
}

func (s *TimetableService) algorithmOf(req dto.GenerateTimetableRequest) string {
	if req.Optimization != nil && req.Optimization.Algorithm != "" {
		return req.Optimization.Algorithm
	}
	return engine.AlgorithmGenetic
}

func (s *TimetableService) optionsOf(req dto.GenerateTimetableRequest) engine.Options {
	opts := engine.Options{
		MaxIterations:   s.cfg.MaxIterations,
		PopulationSize:  s.cfg.PopulationSize,
		MutationRate:    s.cfg.MutationRate,
		CrossoverRate:   s.cfg.CrossoverRate,
		RequireComplete: s.cfg.RequireComplete,
	}
	if o := req.Optimization; o != nil {
		if o.MaxIterations > 0 {
			opts.MaxIterations = o.MaxIterations
		}
		if o.PopulationSize > 0 {
			opts.PopulationSize = o.PopulationSize
		}
		if o.MutationRate > 0 {
			opts.MutationRate = o.MutationRate
		}
		if o.CrossoverRate > 0 {
			opts.CrossoverRate = o.CrossoverRate
		}
		opts.Seed = o.Seed
	}
	if req.RequireComplete != nil {
		opts.RequireComplete = *req.RequireComplete
	}
	return opts
}

func toGenerationResponse(result *engine.Result) *dto.GenerationResponse {
	return &dto.GenerationResponse{
		Timetable:  result.Entries,
		Fitness:    result.Fitness,
		Algorithm:  result.Algorithm,
		Iterations: result.Iterations,
		Warnings:   result.Warnings,
		Errors:     result.Errors,
	}
}

func parseRelations(expand string) models.RelationSet {
	var relations models.RelationSet
	for _, part := range strings.Split(expand, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "subject":
			relations.Subject = true
		case "teacher":
			relations.Teacher = true
		case "class":
			relations.Class = true
		}
	}
	return relations
}

// --- Run store ---

type generationRun struct {
	ID          string
	SchoolID    string
	Algorithm   string
	Status      string
	SubmittedBy string
	SubmittedAt time.Time
	CompletedAt *time.Time
	Result      *engine.Result
	Scope       []string
	Err         string

	request dto.GenerateTimetableRequest
}

type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*generationRun
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		items: make(map[string]*generationRun),
	}
}

func (s *runStore) Save(run *generationRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.ID] = run
}

// Get returns a copy taken under the lock so callers never observe a run
// the worker is mutating concurrently.
func (s *runStore) Get(id string) (generationRun, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	var snapshot generationRun
	if ok {
		snapshot = *run
	}
	s.mu.RUnlock()
	if !ok {
		return generationRun{}, false
	}
	if time.Since(snapshot.SubmittedAt) > s.ttl {
		s.Delete(id)
		return generationRun{}, false
	}
	return snapshot, true
}

func (s *runStore) Update(id string, fn func(*generationRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.items[id]; ok {
		fn(run)
	}
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
