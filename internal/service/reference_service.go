package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type subjectLister interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
}

type teacherLister interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type roomLister interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
}

type cohortLister interface {
	List(ctx context.Context, filter models.CohortFilter) ([]models.Cohort, int, error)
}

type sessionLister interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
}

// ReferenceService serves the read-only catalogue the planner consumes:
// subjects, teachers, rooms, cohorts and committed sessions.
type ReferenceService struct {
	subjects subjectLister
	teachers teacherLister
	rooms    roomLister
	cohorts  cohortLister
	sessions sessionLister
	logger   *zap.Logger
}

// NewReferenceService wires catalogue dependencies.
func NewReferenceService(
	subjects subjectLister,
	teachers teacherLister,
	rooms roomLister,
	cohorts cohortLister,
	sessions sessionLister,
	logger *zap.Logger,
) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		subjects: subjects,
		teachers: teachers,
		rooms:    rooms,
		cohorts:  cohorts,
		sessions: sessions,
		logger:   logger,
	}
}

// ListSubjects returns the subject catalogue page.
func (s *ReferenceService) ListSubjects(ctx context.Context, q dto.SubjectListQuery) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.subjects.List(ctx, models.SubjectFilter{
		Practical: q.Practical,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, models.NewPagination(q.Page, q.PageSize, total), nil
}

// ListTeachers returns the teacher roster page.
func (s *ReferenceService) ListTeachers(ctx context.Context, q dto.TeacherListQuery) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, models.TeacherFilter{
		Active:      q.Active,
		SubjectCode: q.SubjectCode,
		Search:      q.Search,
		Page:        q.Page,
		PageSize:    q.PageSize,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, models.NewPagination(q.Page, q.PageSize, total), nil
}

// ListRooms returns the room inventory page.
func (s *ReferenceService) ListRooms(ctx context.Context, q dto.RoomListQuery) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, models.RoomFilter{
		Lab:         q.Lab,
		Building:    q.Building,
		MinCapacity: q.MinCapacity,
		Page:        q.Page,
		PageSize:    q.PageSize,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, models.NewPagination(q.Page, q.PageSize, total), nil
}

// ListCohorts returns the cohort directory page.
func (s *ReferenceService) ListCohorts(ctx context.Context, q dto.CohortListQuery) ([]models.Cohort, *models.Pagination, error) {
	cohorts, total, err := s.cohorts.List(ctx, models.CohortFilter{
		Batch:     q.Batch,
		Seniority: q.Seniority,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohorts")
	}
	return cohorts, models.NewPagination(q.Page, q.PageSize, total), nil
}

// ListSessions returns the committed session page.
func (s *ReferenceService) ListSessions(ctx context.Context, q dto.SessionListQuery) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, models.SessionFilter{
		CohortID:  q.CohortID,
		TeacherID: q.TeacherID,
		RoomID:    q.RoomID,
		Day:       q.Day,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, models.NewPagination(q.Page, q.PageSize, total), nil
}
