package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/engine"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type subjectCatalog interface {
	ListByCodes(ctx context.Context, codes []string) ([]models.Subject, error)
}

type teacherRoster interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type roomInventory interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type cohortDirectory interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Cohort, error)
}

type sessionStore interface {
	ListCommitted(ctx context.Context) ([]models.Session, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.Session) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scheduleEngine interface {
	Generate(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session) (*engine.Result, error)
	Validate(cfg models.PlanningConfig, ref models.ReferenceData, sessions, existing []models.Session) models.ViolationReport
}

type runMetrics interface {
	ObserveRun(status string, duration time.Duration, unplaced, violations int)
}

// Planning run lifecycle states.
const (
	RunStatusQueued    = "QUEUED"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
	RunStatusCommitted = "COMMITTED"
)

// PlannerService orchestrates timetable generation: it loads reference data,
// runs the scheduling engine, keeps proposals until they expire or get
// committed, and persists accepted plans transactionally.
type PlannerService struct {
	subjects  subjectCatalog
	teachers  teacherRoster
	rooms     roomInventory
	cohorts   cohortDirectory
	sessions  sessionStore
	tx        txProvider
	engine    scheduleEngine
	runs      RunStore
	metrics   runMetrics
	validator *validator.Validate
	logger    *zap.Logger
	settings  config.PlannerConfig
}

// NewPlannerService wires planner dependencies.
func NewPlannerService(
	subjects subjectCatalog,
	teachers teacherRoster,
	rooms roomInventory,
	cohorts cohortDirectory,
	sessions sessionStore,
	tx txProvider,
	eng scheduleEngine,
	runs RunStore,
	metrics runMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	settings config.PlannerConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if runs == nil {
		runs = newMemoryRunStore(settings.ProposalTTL)
	}
	if metrics == nil {
		metrics = noopRunMetrics{}
	}
	return &PlannerService{
		subjects:  subjects,
		teachers:  teachers,
		rooms:     rooms,
		cohorts:   cohorts,
		sessions:  sessions,
		tx:        tx,
		engine:    eng,
		runs:      runs,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		settings:  settings,
	}
}

type noopRunMetrics struct{}

func (noopRunMetrics) ObserveRun(string, time.Duration, int, int) {}

// Generate builds a timetable proposal for the requested cohorts. Async
// requests are stored as queued runs and picked up by the job queue.
func (s *PlannerService) Generate(ctx context.Context, req dto.GeneratePlanRequest) (*dto.PlanningRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate plan payload")
	}

	run := planningRun{
		RunID:           uuid.NewString(),
		Status:          RunStatusQueued,
		CohortIDs:       req.CohortIDs,
		Config:          s.planningConfig(req.Overrides),
		IgnoreCommitted: req.IgnoreCommitted,
		RequestedAt:     time.Now().UTC(),
	}

	if req.Async {
		if err := s.runs.Save(ctx, run); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store planning run")
		}
		return &dto.PlanningRunResponse{RunID: run.RunID, Status: RunStatusQueued}, nil
	}

	return s.execute(ctx, run)
}

// ExecuteRun runs a previously queued planning run. It is the job queue
// handler target.
func (s *PlannerService) ExecuteRun(ctx context.Context, runID string) error {
	run, ok, err := s.runs.Get(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "planning run not found or expired")
	}
	if run.Status != RunStatusQueued {
		return nil
	}
	_, err = s.execute(ctx, run)
	return err
}

func (s *PlannerService) execute(ctx context.Context, run planningRun) (*dto.PlanningRunResponse, error) {
	started := time.Now()
	run.Status = RunStatusRunning

	ref, err := s.loadReferenceData(ctx, run.CohortIDs)
	if err != nil {
		s.failRun(ctx, run, err)
		s.metrics.ObserveRun(RunStatusFailed, time.Since(started), 0, 0)
		return nil, err
	}

	var existing []models.Session
	if !run.IgnoreCommitted {
		existing, err = s.sessions.ListCommitted(ctx)
		if err != nil {
			wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed sessions")
			s.failRun(ctx, run, wrapped)
			s.metrics.ObserveRun(RunStatusFailed, time.Since(started), 0, 0)
			return nil, wrapped
		}
	}

	result, err := s.engine.Generate(run.Config, *ref, existing)
	if err != nil {
		s.failRun(ctx, run, err)
		s.metrics.ObserveRun(RunStatusFailed, time.Since(started), 0, 0)
		return nil, err
	}

	for i := range result.Sessions {
		result.Sessions[i].RunID = run.RunID
	}

	run.Status = RunStatusCompleted
	run.Result = result
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store planning run")
	}

	s.metrics.ObserveRun(RunStatusCompleted, time.Since(started), len(result.Unplaced), len(result.Report.Violations))
	s.logger.Info("planning run completed",
		zap.String("run_id", run.RunID),
		zap.Int("cohorts", len(run.CohortIDs)),
		zap.Int("sessions", len(result.Sessions)),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Float64("score", result.Score),
	)

	return s.runResponse(run), nil
}

func (s *PlannerService) failRun(ctx context.Context, run planningRun, cause error) {
	run.Status = RunStatusFailed
	run.Error = cause.Error()
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Warn("failed to store failed planning run", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

// GetRun returns the stored state of a planning run.
func (s *PlannerService) GetRun(ctx context.Context, runID string) (*dto.PlanningRunResponse, error) {
	run, ok, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning run")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "planning run not found or expired")
	}
	return s.runResponse(run), nil
}

// Commit persists a completed proposal inside one transaction and marks the
// run committed. Proposals with unplaced requirements or remaining violations
// are refused.
func (s *PlannerService) Commit(ctx context.Context, req dto.CommitPlanRequest) (*dto.CommitPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit payload")
	}

	run, ok, err := s.runs.Get(ctx, req.RunID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning run")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "planning run not found or expired")
	}
	if run.Status != RunStatusCompleted || run.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "planning run is not ready to commit")
	}
	if len(run.Result.Unplaced) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal has unplaced requirements")
	}
	if !run.Result.Report.ResolutionComplete {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal has unresolved constraint violations")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.sessions.BulkCreateWithTx(ctx, tx, run.Result.Sessions); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist sessions")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
		return nil, err
	}

	run.Status = RunStatusCommitted
	if saveErr := s.runs.Save(ctx, run); saveErr != nil {
		s.logger.Warn("failed to mark planning run committed", zap.String("run_id", run.RunID), zap.Error(saveErr))
	}

	s.logger.Info("planning run committed",
		zap.String("run_id", run.RunID),
		zap.Int("sessions", len(run.Result.Sessions)),
	)

	return &dto.CommitPlanResponse{
		RunID:             run.RunID,
		SessionsCommitted: len(run.Result.Sessions),
	}, nil
}

// Validate checks an externally supplied session set against the constraint
// catalogue without touching stored data.
func (s *PlannerService) Validate(ctx context.Context, req dto.ValidateScheduleRequest) (*dto.ValidateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate payload")
	}

	cfg := s.planningConfig(req.Overrides)

	cohortIDs := make([]string, 0, len(req.Sessions))
	seen := make(map[string]bool, len(req.Sessions))
	for _, in := range req.Sessions {
		if !seen[in.CohortID] {
			seen[in.CohortID] = true
			cohortIDs = append(cohortIDs, in.CohortID)
		}
	}

	ref, err := s.loadReferenceData(ctx, cohortIDs)
	if err != nil {
		return nil, err
	}

	var existing []models.Session
	if !req.IgnoreCommitted {
		existing, err = s.sessions.ListCommitted(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed sessions")
		}
	}

	sessions := make([]models.Session, 0, len(req.Sessions))
	subjects := ref.SubjectByCode()
	for _, in := range req.Sessions {
		span := in.PeriodSpan
		if span < 1 {
			span = 1
		}
		start, end := cfg.PeriodWindow(in.Period, span)
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		practical := in.IsPractical
		if subj, ok := subjects[in.SubjectCode]; ok {
			practical = subj.IsPractical
		}
		sessions = append(sessions, models.Session{
			ID:          id,
			CohortID:    in.CohortID,
			SubjectCode: in.SubjectCode,
			TeacherID:   in.TeacherID,
			RoomID:      in.RoomID,
			Day:         in.Day,
			Period:      in.Period,
			PeriodSpan:  span,
			StartTime:   start,
			EndTime:     end,
			IsPractical: practical,
		})
	}

	report := s.engine.Validate(cfg, *ref, sessions, existing)
	return &dto.ValidateScheduleResponse{
		Valid:      len(report.Violations) == 0,
		Violations: violationViews(report.Violations),
	}, nil
}

func (s *PlannerService) loadReferenceData(ctx context.Context, cohortIDs []string) (*models.ReferenceData, error) {
	cohorts, err := s.cohorts.ListByIDs(ctx, cohortIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohorts")
	}
	if len(cohorts) != len(cohortIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more cohorts do not exist")
	}

	codes := make([]string, 0)
	seen := make(map[string]bool)
	for _, cohort := range cohorts {
		for _, code := range cohort.SubjectCodes {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}

	subjects, err := s.subjects.ListByCodes(ctx, codes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	return &models.ReferenceData{
		Subjects: subjects,
		Teachers: teachers,
		Rooms:    rooms,
		Cohorts:  cohorts,
	}, nil
}

func (s *PlannerService) planningConfig(overrides *dto.PlanningOverrides) models.PlanningConfig {
	cfg := models.PlanningConfig{
		Days:                  s.settings.Days,
		PeriodsPerDay:         s.settings.PeriodsPerDay,
		LessonDuration:        s.settings.LessonDuration,
		FirstLessonStart:      s.settings.FirstLessonStart,
		Seed:                  s.settings.Seed,
		RetryBudget:           s.settings.RetryBudget,
		ResolverMaxIterations: s.settings.ResolverMaxIterations,
		FridayName:            s.settings.FridayName,
		FridayTheoryCutoff:    s.settings.FridayTheoryCutoff,
		FridayPracticalCutoff: s.settings.FridayPracticalCutoff,
		ThesisDay:             s.settings.ThesisDay,
		ThesisSubjectCode:     s.settings.ThesisSubjectCode,
		MinSessionsPerDay:     s.settings.MinSessionsPerDay,
		HomeBuildings:         s.settings.HomeBuildings,
	}
	if overrides == nil {
		return cfg
	}
	if len(overrides.Days) > 0 {
		cfg.Days = overrides.Days
	}
	if overrides.PeriodsPerDay > 0 {
		cfg.PeriodsPerDay = overrides.PeriodsPerDay
	}
	if overrides.FirstLessonStart != "" {
		cfg.FirstLessonStart = overrides.FirstLessonStart
	}
	if overrides.Seed != nil {
		cfg.Seed = *overrides.Seed
	}
	if overrides.ThesisDay != nil {
		cfg.ThesisDay = *overrides.ThesisDay
	}
	if overrides.ThesisSubjectCode != "" {
		cfg.ThesisSubjectCode = overrides.ThesisSubjectCode
	}
	return cfg
}

func (s *PlannerService) runResponse(run planningRun) *dto.PlanningRunResponse {
	resp := &dto.PlanningRunResponse{
		RunID:  run.RunID,
		Status: run.Status,
	}
	if s.settings.ProposalTTL > 0 && run.Status == RunStatusCompleted {
		expires := run.RequestedAt.Add(s.settings.ProposalTTL)
		resp.ExpiresAt = &expires
	}
	if run.Result == nil {
		return resp
	}

	resp.Score = run.Result.Score
	resp.Sessions = sessionViews(run.Result.Sessions)
	resp.Report = dto.ReportView{
		Violations:         violationViews(run.Result.Report.Violations),
		ResolverIterations: run.Result.Report.ResolverIterations,
		ResolutionComplete: run.Result.Report.ResolutionComplete,
	}
	resp.Stats = dto.RunStatsView{
		Requirements:      run.Result.Stats.Requirements,
		SessionsPlaced:    run.Result.Stats.SessionsPlaced,
		PlacementAttempts: run.Result.Stats.PlacementAttempts,
	}
	resp.Unplaced = make([]dto.PlacementFailureView, 0, len(run.Result.Unplaced))
	for _, failure := range run.Result.Unplaced {
		resp.Unplaced = append(resp.Unplaced, dto.PlacementFailureView{
			CohortID:    failure.Requirement.CohortID,
			SubjectCode: failure.Requirement.SubjectCode,
			Reason:      failure.Reason,
		})
	}
	return resp
}

func sessionViews(sessions []models.Session) []dto.SessionView {
	views := make([]dto.SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, dto.SessionView{
			ID:          s.ID,
			CohortID:    s.CohortID,
			SubjectCode: s.SubjectCode,
			TeacherID:   s.TeacherID,
			RoomID:      s.RoomID,
			Day:         s.Day,
			Period:      s.Period,
			PeriodSpan:  s.PeriodSpan,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsPractical: s.IsPractical,
		})
	}
	return views
}

func violationViews(violations []models.Violation) []dto.ViolationView {
	views := make([]dto.ViolationView, 0, len(violations))
	for _, v := range violations {
		views = append(views, dto.ViolationView{
			Kind:        v.Kind,
			Description: v.Description,
			SessionIDs:  v.SessionIDs,
		})
	}
	return views
}
