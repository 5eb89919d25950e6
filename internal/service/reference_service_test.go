package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type stubSubjectLister struct {
	filter models.SubjectFilter
	err    error
}

func (s *stubSubjectLister) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	s.filter = filter
	if s.err != nil {
		return nil, 0, s.err
	}
	return []models.Subject{{ID: "s-1", Code: "MATH101"}}, 41, nil
}

type stubSessionLister struct {
	filter models.SessionFilter
}

func (s *stubSessionLister) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	s.filter = filter
	return []models.Session{{ID: "sess-1"}}, 1, nil
}

func TestReferenceListSubjectsMapsFilterAndPagination(t *testing.T) {
	lister := &stubSubjectLister{}
	svc := NewReferenceService(lister, nil, nil, nil, nil, nil)

	practical := true
	subjects, page, err := svc.ListSubjects(context.Background(), dto.SubjectListQuery{
		Practical: &practical,
		Search:    "math",
		Page:      2,
		PageSize:  20,
		SortBy:    "code",
	})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.NotNil(t, page)

	assert.Equal(t, "math", lister.filter.Search)
	require.NotNil(t, lister.filter.Practical)
	assert.True(t, *lister.filter.Practical)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 41, page.TotalCount)
}

func TestReferenceListSubjectsWrapsErrors(t *testing.T) {
	svc := NewReferenceService(&stubSubjectLister{err: errors.New("db down")}, nil, nil, nil, nil, nil)

	_, _, err := svc.ListSubjects(context.Background(), dto.SubjectListQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestReferenceListSessionsMapsFilter(t *testing.T) {
	lister := &stubSessionLister{}
	svc := NewReferenceService(nil, nil, nil, nil, lister, nil)

	sessions, page, err := svc.ListSessions(context.Background(), dto.SessionListQuery{
		CohortID: "c-1",
		Day:      "MONDAY",
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, page)

	assert.Equal(t, "c-1", lister.filter.CohortID)
	assert.Equal(t, "MONDAY", lister.filter.Day)
	assert.Equal(t, 1, page.Page, "zero page defaults to the first")
}
