package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type referenceCatalog interface {
	ListSubjects(ctx context.Context, q dto.SubjectListQuery) ([]models.Subject, *models.Pagination, error)
	ListTeachers(ctx context.Context, q dto.TeacherListQuery) ([]models.Teacher, *models.Pagination, error)
	ListRooms(ctx context.Context, q dto.RoomListQuery) ([]models.Room, *models.Pagination, error)
	ListCohorts(ctx context.Context, q dto.CohortListQuery) ([]models.Cohort, *models.Pagination, error)
	ListSessions(ctx context.Context, q dto.SessionListQuery) ([]models.Session, *models.Pagination, error)
}

// ReferenceHandler exposes the read-only catalogue endpoints.
type ReferenceHandler struct {
	service referenceCatalog
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Param practical query bool false "Filter practical subjects"
// @Param search query string false "Search code or name"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) ListSubjects(c *gin.Context) {
	var q dto.SubjectListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject query"))
		return
	}
	subjects, pagination, err := h.service.ListSubjects(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Reference
// @Produce json
// @Param active query bool false "Filter active teachers"
// @Param subjectCode query string false "Filter by qualification"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *ReferenceHandler) ListTeachers(c *gin.Context) {
	var q dto.TeacherListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher query"))
		return
	}
	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// ListRooms godoc
// @Summary List rooms and laboratories
// @Tags Reference
// @Produce json
// @Param lab query bool false "Filter laboratories"
// @Param building query string false "Filter by building"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *ReferenceHandler) ListRooms(c *gin.Context) {
	var q dto.RoomListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room query"))
		return
	}
	rooms, pagination, err := h.service.ListRooms(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// ListCohorts godoc
// @Summary List cohorts
// @Tags Reference
// @Produce json
// @Param batch query string false "Filter by batch"
// @Param seniority query int false "Filter by seniority rank"
// @Success 200 {object} response.Envelope
// @Router /cohorts [get]
func (h *ReferenceHandler) ListCohorts(c *gin.Context) {
	var q dto.CohortListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cohort query"))
		return
	}
	cohorts, pagination, err := h.service.ListCohorts(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohorts, pagination)
}

// ListSessions godoc
// @Summary List committed sessions
// @Tags Reference
// @Produce json
// @Param cohortId query string false "Filter by cohort"
// @Param teacherId query string false "Filter by teacher"
// @Param roomId query string false "Filter by room"
// @Param day query string false "Filter by day"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *ReferenceHandler) ListSessions(c *gin.Context) {
	var q dto.SessionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session query"))
		return
	}
	sessions, pagination, err := h.service.ListSessions(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}
