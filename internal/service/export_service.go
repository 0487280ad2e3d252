package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type jsonRenderer interface {
	Render(payload interface{}) ([]byte, error)
}

type timetableQuerier interface {
	Query(ctx context.Context, q dto.TimetableQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error)
}

// ExportService renders committed timetables as CSV or JSON downloads.
// PDF output is deliberately not offered.
type ExportService struct {
	timetables timetableQuerier
	csv        csvRenderer
	json       jsonRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableQuerier, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		json:       export.NewJSONExporter(),
		logger:     logger,
	}
}

var csvHeaders = []string{"Day", "Period", "Class", "Subject", "Teacher", "Start Time", "End Time", "Room"}

// ExportCSV renders the filtered schedule as CSV bytes.
func (s *ExportService) ExportCSV(ctx context.Context, query dto.TimetableQuery) ([]byte, error) {
	entries, err := s.fetchAll(ctx, query)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Day":        models.DayName(e.Day),
			"Period":     strconv.Itoa(e.Period),
			"Class":      labelOr(e.ClassName, e.ClassID),
			"Subject":    labelOr(e.SubjectName, e.SubjectID),
			"Teacher":    labelOr(e.TeacherName, e.TeacherID),
			"Start Time": e.StartTime,
			"End Time":   e.EndTime,
			"Room":       e.RoomValue(),
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: csvHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return data, nil
}

// ExportJSON renders the filtered schedule as a JSON dump.
func (s *ExportService) ExportJSON(ctx context.Context, query dto.TimetableQuery) ([]byte, error) {
	entries, err := s.fetchAll(ctx, query)
	if err != nil {
		return nil, err
	}
	data, err := s.json.Render(entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render json export")
	}
	return data, nil
}

// fetchAll pages through the read path; exports always expand relations so
// the output carries human-readable names.
func (s *ExportService) fetchAll(ctx context.Context, query dto.TimetableQuery) ([]models.ScheduleEntryDetail, error) {
	query.Expand = "subject,teacher,class"
	query.PageSize = 200

	var all []models.ScheduleEntryDetail
	for page := 1; ; page++ {
		query.Page = page
		entries, pagination, err := s.timetables.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		if pagination == nil || page >= pagination.TotalPages {
			break
		}
	}
	return all, nil
}

func labelOr(name *string, fallback string) string {
	if name != nil && *name != "" {
		return *name
	}
	return fallback
}
