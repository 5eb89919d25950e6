package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/engine"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type stubSubjects struct {
	subjects []models.Subject
	err      error
}

func (s *stubSubjects) ListByCodes(ctx context.Context, codes []string) ([]models.Subject, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	var out []models.Subject
	for _, subj := range s.subjects {
		if wanted[subj.Code] {
			out = append(out, subj)
		}
	}
	return out, nil
}

type stubTeachers struct {
	teachers []models.Teacher
}

func (s *stubTeachers) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

type stubRooms struct {
	rooms []models.Room
}

func (s *stubRooms) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type stubCohorts struct {
	cohorts map[string]models.Cohort
}

func (s *stubCohorts) ListByIDs(ctx context.Context, ids []string) ([]models.Cohort, error) {
	var out []models.Cohort
	for _, id := range ids {
		if c, ok := s.cohorts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubSessions struct {
	committed []models.Session
	listErr   error
	bulkErr   error
	persisted []models.Session
}

func (s *stubSessions) ListCommitted(ctx context.Context) ([]models.Session, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.committed, nil
}

func (s *stubSessions) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.Session) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.persisted = append(s.persisted, sessions...)
	return nil
}

func plannerTestSettings() config.PlannerConfig {
	return config.PlannerConfig{
		Days:                  []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"},
		PeriodsPerDay:         7,
		LessonDuration:        45 * time.Minute,
		FirstLessonStart:      "08:00",
		Seed:                  42,
		RetryBudget:           300,
		ResolverMaxIterations: 10,
		FridayName:            "FRIDAY",
		FridayTheoryCutoff:    6,
		FridayPracticalCutoff: 4,
		ProposalTTL:           time.Hour,
	}
}

func newTestPlanner(t *testing.T, sessions *stubSessions, tx txProvider) (*PlannerService, *memoryRunStore) {
	t.Helper()
	runs := newMemoryRunStore(time.Hour)
	svc := NewPlannerService(
		&stubSubjects{subjects: []models.Subject{
			{ID: "s-math", Code: "MATH101", Name: "Calculus", CreditHours: 2},
			{ID: "s-phys", Code: "PHYS-LAB", Name: "Physics Lab", CreditHours: 1, IsPractical: true},
		}},
		&stubTeachers{teachers: []models.Teacher{
			{ID: "t-1", FullName: "Dewi Lestari", Active: true, QualifiedSubjects: []string{"MATH101", "PHYS-LAB"}},
		}},
		&stubRooms{rooms: []models.Room{
			{ID: "r-101", Name: "Room 101", Capacity: 40},
			{ID: "r-lab", Name: "Physics Lab", Capacity: 35, IsLab: true},
		}},
		&stubCohorts{cohorts: map[string]models.Cohort{
			"c-1": {ID: "c-1", Name: "CS 2024 A", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101", "PHYS-LAB"}},
		}},
		sessions,
		tx,
		engine.New(nil),
		runs,
		nil,
		nil,
		nil,
		plannerTestSettings(),
	)
	return svc, runs
}

func TestPlannerGenerateSyncCompletes(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	resp, err := svc.Generate(context.Background(), dto.GeneratePlanRequest{CohortIDs: []string{"c-1"}})
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Sessions, 3, "two theory units and one practical block")
	assert.Empty(t, resp.Unplaced)
	assert.NotNil(t, resp.ExpiresAt)

	fetched, err := svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, fetched.RunID)
	assert.Equal(t, RunStatusCompleted, fetched.Status)
}

func TestPlannerGenerateRejectsEmptyCohorts(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	_, err := svc.Generate(context.Background(), dto.GeneratePlanRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlannerGenerateUnknownCohort(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	_, err := svc.Generate(context.Background(), dto.GeneratePlanRequest{CohortIDs: []string{"c-1", "c-missing"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Generate(context.Background(), dto.GeneratePlanRequest{CohortIDs: []string{"c-1"}})
	assert.NoError(t, err)
}

func TestPlannerGenerateAsyncQueuesRun(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	resp, err := svc.Generate(context.Background(), dto.GeneratePlanRequest{CohortIDs: []string{"c-1"}, Async: true})
	require.NoError(t, err)
	assert.Equal(t, RunStatusQueued, resp.Status)
	assert.Empty(t, resp.Sessions)

	require.NoError(t, svc.ExecuteRun(context.Background(), resp.RunID))

	fetched, err := svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, fetched.Status)
	assert.Len(t, fetched.Sessions, 3)

	// Re-running a finished run is a no-op.
	require.NoError(t, svc.ExecuteRun(context.Background(), resp.RunID))
}

func TestPlannerExecuteRunUnknownID(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	err := svc.ExecuteRun(context.Background(), "gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlannerGenerateFailsWhenCommittedLookupFails(t *testing.T) {
	sessions := &stubSessions{listErr: errors.New("db down")}
	svc, runs := newTestPlanner(t, sessions, nil)

	_, err := svc.Generate(context.Background(), dto.GeneratePlanRequest{CohortIDs: []string{"c-1"}})
	require.Error(t, err)

	// The failed run is still recorded for later inspection.
	var failed bool
	runs.mu.RLock()
	for _, run := range runs.items {
		if run.Status == RunStatusFailed {
			failed = true
		}
	}
	runs.mu.RUnlock()
	assert.True(t, failed)
}

func TestPlannerGetRunExpired(t *testing.T) {
	svc, runs := newTestPlanner(t, &stubSessions{}, nil)
	require.NoError(t, runs.Save(context.Background(), planningRun{
		RunID:       "old",
		Status:      RunStatusCompleted,
		RequestedAt: time.Now().Add(-2 * time.Hour),
	}))

	_, err := svc.GetRun(context.Background(), "old")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlannerCommitRefusesUnreadyRuns(t *testing.T) {
	svc, runs := newTestPlanner(t, &stubSessions{}, nil)
	ctx := context.Background()

	require.NoError(t, runs.Save(ctx, planningRun{
		RunID: "queued", Status: RunStatusQueued, RequestedAt: time.Now(),
	}))
	_, err := svc.Commit(ctx, dto.CommitPlanRequest{RunID: "queued"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, runs.Save(ctx, planningRun{
		RunID: "unplaced", Status: RunStatusCompleted, RequestedAt: time.Now(),
		Result: &engine.Result{
			Unplaced: []models.PlacementFailure{{Reason: models.FailureNoRoomAvailable}},
			Report:   models.ViolationReport{ResolutionComplete: true},
		},
	}))
	_, err = svc.Commit(ctx, dto.CommitPlanRequest{RunID: "unplaced"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, runs.Save(ctx, planningRun{
		RunID: "conflicted", Status: RunStatusCompleted, RequestedAt: time.Now(),
		Result: &engine.Result{
			Report: models.ViolationReport{
				Violations:         []models.Violation{{Kind: models.ViolationTeacherConflict}},
				ResolutionComplete: false,
			},
		},
	}))
	_, err = svc.Commit(ctx, dto.CommitPlanRequest{RunID: "conflicted"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPlannerCommitPersistsSessions(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close() //nolint:errcheck
	db := sqlx.NewDb(mockDB, "sqlmock")

	sessions := &stubSessions{}
	svc, runs := newTestPlanner(t, sessions, db)
	ctx := context.Background()

	proposal := []models.Session{
		{ID: "s-1", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "s-2", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "TUESDAY", Period: 1, PeriodSpan: 1},
	}
	require.NoError(t, runs.Save(ctx, planningRun{
		RunID: "ready", Status: RunStatusCompleted, RequestedAt: time.Now(),
		Result: &engine.Result{
			Sessions: proposal,
			Report:   models.ViolationReport{ResolutionComplete: true},
			Score:    100,
		},
	}))

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Commit(ctx, dto.CommitPlanRequest{RunID: "ready"})
	require.NoError(t, err)
	assert.Equal(t, "ready", resp.RunID)
	assert.Equal(t, 2, resp.SessionsCommitted)
	assert.Len(t, sessions.persisted, 2)
	require.NoError(t, mock.ExpectationsWereMet())

	run, ok, err := runs.Get(ctx, "ready")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, RunStatusCommitted, run.Status)
}

func TestPlannerCommitRollsBackOnPersistError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close() //nolint:errcheck
	db := sqlx.NewDb(mockDB, "sqlmock")

	sessions := &stubSessions{bulkErr: errors.New("insert failed")}
	svc, runs := newTestPlanner(t, sessions, db)
	ctx := context.Background()

	require.NoError(t, runs.Save(ctx, planningRun{
		RunID: "ready", Status: RunStatusCompleted, RequestedAt: time.Now(),
		Result: &engine.Result{
			Sessions: []models.Session{{ID: "s-1"}},
			Report:   models.ViolationReport{ResolutionComplete: true},
		},
	}))

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.Commit(ctx, dto.CommitPlanRequest{RunID: "ready"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	run, ok, err := runs.Get(ctx, "ready")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, RunStatusCompleted, run.Status, "a failed commit leaves the proposal intact")
}

func TestPlannerValidateFlagsConflicts(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	resp, err := svc.Validate(context.Background(), dto.ValidateScheduleRequest{
		Sessions: []dto.SessionInput{
			{CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101", Day: "MONDAY", Period: 1},
			{CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-102", Day: "MONDAY", Period: 1},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)

	kinds := make([]string, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		kinds = append(kinds, v.Kind)
	}
	assert.Contains(t, kinds, models.ViolationTeacherConflict)
}

func TestPlannerValidateCleanSchedule(t *testing.T) {
	svc, _ := newTestPlanner(t, &stubSessions{}, nil)

	resp, err := svc.Validate(context.Background(), dto.ValidateScheduleRequest{
		Sessions: []dto.SessionInput{
			{CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101", Day: "MONDAY", Period: 1},
			{CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101", Day: "TUESDAY", Period: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Violations)
}
