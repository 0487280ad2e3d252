package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TimetableRepository supplies generation input snapshots and persists the
// chosen candidate.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// FetchSnapshot loads classes, teacher assignments and committed entries in
// one read-only transaction so the run sees a consistent view. When classIDs
// is empty the whole school is in scope. Existing entries cover committed
// schedules outside the regenerated scope.
func (r *TimetableRepository) FetchSnapshot(ctx context.Context, schoolID string, classIDs []string) (*models.Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	snap := &models.Snapshot{SchoolID: schoolID}

	if len(classIDs) > 0 {
		const query = `SELECT id, school_id, name, grade, created_at FROM classes WHERE school_id = $1 AND id = ANY($2) ORDER BY name ASC`
		if err := tx.SelectContext(ctx, &snap.Classes, query, schoolID, pq.Array(classIDs)); err != nil {
			return nil, fmt.Errorf("snapshot classes: %w", err)
		}
	} else {
		const query = `SELECT id, school_id, name, grade, created_at FROM classes WHERE school_id = $1 ORDER BY name ASC`
		if err := tx.SelectContext(ctx, &snap.Classes, query, schoolID); err != nil {
			return nil, fmt.Errorf("snapshot classes: %w", err)
		}
	}

	scope := make([]string, 0, len(snap.Classes))
	for _, c := range snap.Classes {
		scope = append(scope, c.ID)
	}
	if len(scope) == 0 {
		return snap, nil
	}

	const assignmentQuery = `SELECT id, school_id, teacher_id, class_id, subject_id, credit_hours, created_at FROM teacher_assignments WHERE school_id = $1 AND class_id = ANY($2) ORDER BY class_id ASC, subject_id ASC`
	if err := tx.SelectContext(ctx, &snap.Assignments, assignmentQuery, schoolID, pq.Array(scope)); err != nil {
		return nil, fmt.Errorf("snapshot assignments: %w", err)
	}

	const existingQuery = `SELECT id, school_id, class_id, subject_id, teacher_id, day_of_week, period, room, start_time, end_time, created_by, created_at, deleted_at FROM schedule_entries WHERE school_id = $1 AND deleted_at IS NULL AND NOT (class_id = ANY($2)) ORDER BY day_of_week ASC, period ASC`
	if err := tx.SelectContext(ctx, &snap.Existing, existingQuery, schoolID, pq.Array(scope)); err != nil {
		return nil, fmt.Errorf("snapshot existing entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot read: %w", err)
	}
	return snap, nil
}

// Replace atomically swaps the committed schedule for the class scope:
// prior rows are soft-deleted and the new entries inserted in one
// transaction, each tagged with the generating actor. Partial replacement
// never survives; any failure rolls the whole operation back.
func (r *TimetableRepository) Replace(ctx context.Context, entries []models.ScheduleEntry, schoolID string, classIDs []string, actorID string) (int, error) {
	if len(classIDs) == 0 {
		return 0, fmt.Errorf("replace schedule: empty class scope")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE schedule_entries SET deleted_at = $1 WHERE school_id = $2 AND class_id = ANY($3) AND deleted_at IS NULL`,
		now, schoolID, pq.Array(classIDs)); err != nil {
		return 0, fmt.Errorf("retire prior schedule: %w", err)
	}

	count := 0
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.SchoolID = schoolID
		payload.CreatedBy = actorID
		payload.CreatedAt = now

		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO schedule_entries (id, school_id, class_id, subject_id, teacher_id, day_of_week, period, room, start_time, end_time, created_by, created_at) VALUES (:id, :school_id, :class_id, :subject_id, :teacher_id, :day_of_week, :period, :room, :start_time, :end_time, :created_by, :created_at)`,
			&payload); err != nil {
			return 0, fmt.Errorf("insert schedule entry: %w", err)
		}
		count++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace schedule: %w", err)
	}
	return count, nil
}

// Query returns committed entries with optional relation expansion. Not part
// of the optimization loop; used for display and export.
func (r *TimetableRepository) Query(ctx context.Context, schoolID string, filter models.ScheduleFilter, relations models.RelationSet) ([]models.ScheduleEntryDetail, int, error) {
	selects := []string{"se.id", "se.school_id", "se.class_id", "se.subject_id", "se.teacher_id", "se.day_of_week", "se.period", "se.room", "se.start_time", "se.end_time", "se.created_by", "se.created_at", "se.deleted_at"}
	joins := ""
	if relations.Subject {
		selects = append(selects, "s.name AS subject_name")
		joins += " LEFT JOIN subjects s ON s.id = se.subject_id"
	}
	if relations.Teacher {
		selects = append(selects, "t.full_name AS teacher_name")
		joins += " LEFT JOIN teachers t ON t.id = se.teacher_id"
	}
	if relations.Class {
		selects = append(selects, "c.name AS class_name")
		joins += " LEFT JOIN classes c ON c.id = se.class_id"
	}

	base := "FROM schedule_entries se" + joins + " WHERE se.school_id = $1 AND se.deleted_at IS NULL"
	args := []interface{}{schoolID}

	var conditions []string
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("se.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("se.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("se.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day > 0 {
		conditions = append(conditions, fmt.Sprintf("se.day_of_week = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.Period > 0 {
		conditions = append(conditions, fmt.Sprintf("se.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("se.room = $%d", len(args)+1))
		args = append(args, filter.Room)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"day":        "se.day_of_week",
		"period":     "se.period",
		"room":       "se.room",
		"created_at": "se.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "se.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, se.period ASC LIMIT %d OFFSET %d", strings.Join(selects, ", "), base, column, order, size, offset)
	var entries []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query schedule entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return entries, total, nil
}
