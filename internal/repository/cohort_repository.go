package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const cohortColumns = "id, name, batch, section, subject_codes, size, seniority, created_at, updated_at"

// CohortRepository handles persistence for class cohorts.
type CohortRepository struct {
	db *sqlx.DB
}

// NewCohortRepository creates a new repository instance.
func NewCohortRepository(db *sqlx.DB) *CohortRepository {
	return &CohortRepository{db: db}
}

// List returns cohorts matching filters with pagination metadata.
func (r *CohortRepository) List(ctx context.Context, filter models.CohortFilter) ([]models.Cohort, int, error) {
	base := "FROM cohorts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Seniority != nil {
		conditions = append(conditions, fmt.Sprintf("seniority = $%d", len(args)+1))
		args = append(args, *filter.Seniority)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"batch":      true,
		"seniority":  true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", cohortColumns, base, sortBy, order, size, offset)
	var cohorts []models.Cohort
	if err := r.db.SelectContext(ctx, &cohorts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cohorts: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) " + base
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cohorts: %w", err)
	}

	return cohorts, total, nil
}

// ListByIDs fetches the cohorts selected for a planning run, ordered by id.
func (r *CohortRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Cohort, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM cohorts WHERE id = ANY($1) ORDER BY id", cohortColumns)
	var cohorts []models.Cohort
	if err := r.db.SelectContext(ctx, &cohorts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list cohorts by ids: %w", err)
	}
	return cohorts, nil
}

// FindByID returns one cohort.
func (r *CohortRepository) FindByID(ctx context.Context, id string) (*models.Cohort, error) {
	query := fmt.Sprintf("SELECT %s FROM cohorts WHERE id = $1", cohortColumns)
	var cohort models.Cohort
	if err := r.db.GetContext(ctx, &cohort, query, id); err != nil {
		return nil, err
	}
	return &cohort, nil
}

// Create inserts a cohort record.
func (r *CohortRepository) Create(ctx context.Context, cohort *models.Cohort) error {
	if cohort.ID == "" {
		cohort.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cohort.CreatedAt = now
	cohort.UpdatedAt = now

	query := `INSERT INTO cohorts (id, name, batch, section, subject_codes, size, seniority, created_at, updated_at)
		VALUES (:id, :name, :batch, :section, :subject_codes, :size, :seniority, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cohort); err != nil {
		return fmt.Errorf("create cohort: %w", err)
	}
	return nil
}
