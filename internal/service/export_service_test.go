package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
)

type stubTimetableQuerier struct {
	pages   [][]models.ScheduleEntryDetail
	queries []dto.TimetableQuery
}

func (q *stubTimetableQuerier) Query(_ context.Context, query dto.TimetableQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error) {
	q.queries = append(q.queries, query)
	page := query.Page
	if page < 1 {
		page = 1
	}
	var entries []models.ScheduleEntryDetail
	if page <= len(q.pages) {
		entries = q.pages[page-1]
	}
	return entries, &models.Pagination{
		Page:       page,
		PageSize:   query.PageSize,
		TotalPages: len(q.pages),
	}, nil
}

func detail(classID, subject, teacher string, day, period int) models.ScheduleEntryDetail {
	subjectName := strings.ToUpper(subject)
	teacherName := "Teacher " + teacher
	return models.ScheduleEntryDetail{
		ScheduleEntry: models.ScheduleEntry{
			SchoolID:  "school-1",
			ClassID:   classID,
			SubjectID: subject,
			TeacherID: teacher,
			Day:       day,
			Period:    period,
			StartTime: "08:00:00",
			EndTime:   "08:45:00",
		},
		SubjectName: &subjectName,
		TeacherName: &teacherName,
	}
}

func TestExportServiceCSV(t *testing.T) {
	querier := &stubTimetableQuerier{pages: [][]models.ScheduleEntryDetail{{
		detail("10A", "math", "t-1", 1, 1),
		detail("10A", "bio", "t-2", 2, 1),
	}}}
	svc := NewExportService(querier, nil)

	data, err := svc.ExportCSV(context.Background(), dto.TimetableQuery{SchoolID: "school-1"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Period,Class,Subject,Teacher,Start Time,End Time,Room", lines[0])
	assert.Equal(t, "MONDAY,1,10A,MATH,Teacher t-1,08:00:00,08:45:00,", lines[1])
	assert.Equal(t, "TUESDAY,1,10A,BIO,Teacher t-2,08:00:00,08:45:00,", lines[2])
}

func TestExportServiceCSVFallsBackToIdentifiers(t *testing.T) {
	querier := &stubTimetableQuerier{pages: [][]models.ScheduleEntryDetail{{
		{ScheduleEntry: models.ScheduleEntry{ClassID: "10A", SubjectID: "math", TeacherID: "t-1", Day: 1, Period: 2}},
	}}}
	svc := NewExportService(querier, nil)

	data, err := svc.ExportCSV(context.Background(), dto.TimetableQuery{SchoolID: "school-1"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "MONDAY,2,10A,math,t-1,,,", lines[1])
}

func TestExportServiceJSON(t *testing.T) {
	querier := &stubTimetableQuerier{pages: [][]models.ScheduleEntryDetail{{
		detail("10A", "math", "t-1", 1, 1),
	}}}
	svc := NewExportService(querier, nil)

	data, err := svc.ExportJSON(context.Background(), dto.TimetableQuery{SchoolID: "school-1"})
	require.NoError(t, err)

	var decoded []models.ScheduleEntryDetail
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "math", decoded[0].SubjectID)
	assert.Equal(t, "MATH", *decoded[0].SubjectName)
}

func TestExportServicePagesThroughResults(t *testing.T) {
	querier := &stubTimetableQuerier{pages: [][]models.ScheduleEntryDetail{
		{detail("10A", "math", "t-1", 1, 1)},
		{detail("10A", "bio", "t-2", 1, 2)},
	}}
	svc := NewExportService(querier, nil)

	data, err := svc.ExportJSON(context.Background(), dto.TimetableQuery{SchoolID: "school-1"})
	require.NoError(t, err)

	var decoded []models.ScheduleEntryDetail
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)

	// Exports force relation expansion regardless of the caller's query.
	require.Len(t, querier.queries, 2)
	for _, q := range querier.queries {
		assert.Equal(t, "subject,teacher,class", q.Expand)
		assert.Equal(t, 200, q.PageSize)
	}
}
