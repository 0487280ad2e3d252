package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

const maxClassScope = 64

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationResponse, error)
	Submit(ctx context.Context, req dto.GenerateTimetableRequest, actorID string) (*dto.SubmitRunResponse, error)
	GetRun(ctx context.Context, runID string) (*dto.RunStatusResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest, actorID string) (*dto.SaveTimetableResponse, error)
	Query(ctx context.Context, q dto.TimetableQuery) ([]models.ScheduleEntryDetail, *models.Pagination, error)
}

type timetableExporter interface {
	ExportCSV(ctx context.Context, q dto.TimetableQuery) ([]byte, error)
	ExportJSON(ctx context.Context, q dto.TimetableQuery) ([]byte, error)
}

// TimetableHandler exposes the generation and schedule read endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableGenerator, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate builds a timetable synchronously and returns it as a preview;
// nothing is persisted.
func (h *TimetableHandler) Generate(c *gin.Context) {
	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "preview"})
}

// SubmitRun queues an asynchronous generation run.
func (h *TimetableHandler) SubmitRun(c *gin.Context) {
	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// RunStatus reports progress of an asynchronous run.
func (h *TimetableHandler) RunStatus(c *gin.Context) {
	result, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save persists a completed run's best candidate.
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List serves the committed schedule read path.
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	entries, pagination, err := h.service.Query(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Export streams the committed schedule as csv or json.
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.exporter.ExportCSV(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "json":
		data, err := h.exporter.ExportJSON(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="timetable.json"`)
		c.Data(http.StatusOK, "application/json", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}

func (h *TimetableHandler) bindGenerateRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return req, false
	}
	if len(req.ClassIDs) > maxClassScope {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classIds exceeds supported limit"))
		return req, false
	}
	return req, true
}
