package models

import (
	"time"

	"github.com/lib/pq"
)

// Cohort represents a class group sharing one set of required subjects and
// one weekly schedule. Seniority is an explicit rank supplied by reference
// data (1 = most senior), never derived from the calendar.
type Cohort struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Batch        string         `db:"batch" json:"batch"`
	Section      string         `db:"section" json:"section"`
	SubjectCodes pq.StringArray `db:"subject_codes" json:"subject_codes"`
	Size         int            `db:"size" json:"size"`
	Seniority    int            `db:"seniority" json:"seniority"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// CohortFilter captures filtering options for listing cohorts.
type CohortFilter struct {
	Batch     string
	Seniority *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
