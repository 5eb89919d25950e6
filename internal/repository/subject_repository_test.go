package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func newSubjectMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func subjectRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "credit_hours", "is_practical", "created_at", "updated_at"}).
		AddRow("s-1", "MATH101", "Calculus", 2.0, false, now, now).
		AddRow("s-2", "PHYS-LAB", "Physics Lab", 1.0, true, now, now)
}

func TestSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, code, name, credit_hours, is_practical, created_at, updated_at FROM subjects WHERE 1=1 ORDER BY code ASC").
		WillReturnRows(subjectRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, subjects, 2)
	assert.Equal(t, "MATH101", subjects[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListFiltersPractical(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	practical := true
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "credit_hours", "is_practical", "created_at", "updated_at"}).
		AddRow("s-2", "PHYS-LAB", "Physics Lab", 1.0, true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("is_practical = $1")).
		WithArgs(true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{Practical: &practical})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, subjects, 1)
	assert.True(t, subjects[0].IsPractical)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByCodes(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = ANY($1)")).
		WillReturnRows(subjectRows(now))

	subjects, err := repo.ListByCodes(context.Background(), []string{"MATH101", "PHYS-LAB"})
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	subjects, err = repo.ListByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, subjects, "empty code set short-circuits without a query")
	assert.NoError(t, mock.ExpectationsWereMet())
}
