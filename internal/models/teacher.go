package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Email             string         `db:"email" json:"email"`
	QualifiedSubjects pq.StringArray `db:"qualified_subjects" json:"qualified_subjects"`
	MaxSessionsPerDay int            `db:"max_sessions_per_day" json:"max_sessions_per_day"`
	BlockedPeriods    types.JSONText `db:"blocked_periods" json:"blocked_periods,omitempty"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// QualifiedFor reports whether the teacher may teach the given subject code.
func (t Teacher) QualifiedFor(code string) bool {
	for _, c := range t.QualifiedSubjects {
		if c == code {
			return true
		}
	}
	return false
}

// BlockedPeriodMap decodes the per-day explicit unavailability payload
// ({"FRIDAY": [6, 7]}). A malformed payload yields an empty map.
func (t Teacher) BlockedPeriodMap() map[string][]int {
	blocked := make(map[string][]int)
	if len(t.BlockedPeriods) == 0 {
		return blocked
	}
	_ = json.Unmarshal(t.BlockedPeriods, &blocked)
	return blocked
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	SubjectCode string
	Active      *bool
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
