package models

import (
	"math"
	"time"
)

// Subject represents an academic subject offered to cohorts.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	CreditHours float64   `db:"credit_hours" json:"credit_hours"`
	IsPractical bool      `db:"is_practical" json:"is_practical"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WeeklyUnits returns how many weekly theory occurrences the subject needs.
// Practical subjects always map to a single 3-period block regardless of
// credit value.
func (s Subject) WeeklyUnits() int {
	if s.IsPractical {
		return 1
	}
	units := int(math.Ceil(s.CreditHours))
	if units < 1 {
		units = 1
	}
	return units
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Practical *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
