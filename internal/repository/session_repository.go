package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const sessionColumns = "id, run_id, cohort_id, subject_code, teacher_id, room_id, day, period, period_span, start_time, end_time, is_practical, created_at"

// SessionRepository is the scheduling store: committed sessions from earlier
// planning runs are read to seed the occupancy ledger, and accepted plans are
// written back in one transaction.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListCommitted returns every committed session across all planning runs.
func (r *SessionRepository) ListCommitted(ctx context.Context) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions ORDER BY day, period, cohort_id", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list committed sessions: %w", err)
	}
	return sessions, nil
}

// List returns committed sessions matching filters with pagination metadata.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CohortID != "" {
		conditions = append(conditions, fmt.Sprintf("cohort_id = $%d", len(args)+1))
		args = append(args, filter.CohortID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day":        true,
		"period":     true,
		"cohort_id":  true,
		"teacher_id": true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, period ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) " + base
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// BulkCreateWithTx persists an accepted plan inside the caller's transaction.
func (r *SessionRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	query := `INSERT INTO sessions (id, run_id, cohort_id, subject_code, teacher_id, room_id, day, period, period_span, start_time, end_time, is_practical, created_at)
		VALUES (:id, :run_id, :cohort_id, :subject_code, :teacher_id, :room_id, :day, :period, :period_span, :start_time, :end_time, :is_practical, :created_at)`
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].CreatedAt = now
	}
	if _, err := tx.NamedExecContext(ctx, query, sessions); err != nil {
		return fmt.Errorf("bulk create sessions: %w", err)
	}
	return nil
}

// DeleteByRun removes every session committed by one planning run.
func (r *SessionRepository) DeleteByRun(ctx context.Context, runID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("delete sessions by run: %w", err)
	}
	return nil
}
