package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

const maxCohortsPerRun = 64

type timetablePlanner interface {
	Generate(ctx context.Context, req dto.GeneratePlanRequest) (*dto.PlanningRunResponse, error)
	GetRun(ctx context.Context, runID string) (*dto.PlanningRunResponse, error)
	Commit(ctx context.Context, req dto.CommitPlanRequest) (*dto.CommitPlanResponse, error)
	Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error)
}

type runEnqueuer interface {
	EnqueueRun(runID string) error
}

// PlannerHandler exposes the planning run endpoints.
type PlannerHandler struct {
	service timetablePlanner
	queue   runEnqueuer
}

// NewPlannerHandler constructs the handler. The queue may be nil when async
// generation is disabled.
func NewPlannerHandler(svc *service.PlannerService, queue runEnqueuer) *PlannerHandler {
	return &PlannerHandler{service: svc, queue: queue}
}

// Generate godoc
// @Summary Generate a weekly timetable proposal
// @Description Builds a conflict-free weekly schedule for the selected cohorts. Pass async=true to queue the run and poll its status.
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Generate plan payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /planning-runs [post]
func (h *PlannerHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	if len(req.CohortIDs) > maxCohortsPerRun {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "too many cohorts in one planning run"))
		return
	}
	if req.Async && h.queue == nil {
		req.Async = false
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Async {
		if err := h.queue.EnqueueRun(result.RunID); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue planning run"))
			return
		}
		response.JSON(c, http.StatusAccepted, dto.QueuedRunResponse{RunID: result.RunID, Status: result.Status}, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetRun godoc
// @Summary Fetch a planning run
// @Description Returns the proposal, violations and stats of a run, or its queue status while pending.
// @Tags Planner
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /planning-runs/{id} [get]
func (h *PlannerHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "run id required"))
		return
	}
	result, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Commit godoc
// @Summary Commit a planning run
// @Description Persists a completed proposal as the committed timetable. Runs with unplaced requirements or unresolved violations are refused.
// @Tags Planner
// @Produce json
// @Param id path string true "Run ID"
// @Success 201 {object} response.Envelope
// @Router /planning-runs/{id}/commit [post]
func (h *PlannerHandler) Commit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "run id required"))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), dto.CommitPlanRequest{RunID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Validate godoc
// @Summary Validate a session set
// @Description Checks an arbitrary session set against the full constraint catalogue, e.g. after manual edits.
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.ValidateScheduleRequest true "Validate payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/validate [post]
func (h *PlannerHandler) Validate(c *gin.Context) {
	var req dto.ValidateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
