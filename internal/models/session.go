package models

import "time"

// RequirementKind distinguishes single theory occurrences from practical blocks.
type RequirementKind string

const (
	RequirementTheoryUnit     RequirementKind = "THEORY_UNIT"
	RequirementPracticalBlock RequirementKind = "PRACTICAL_BLOCK"
)

// PracticalBlockSpan is the fixed number of consecutive periods a practical
// subject occupies each week.
const PracticalBlockSpan = 3

// SessionRequirement is a derived obligation to schedule one subject
// occurrence for one cohort. Requirements are rebuilt every planning run and
// never persisted; Key deduplicates instances of the same obligation.
type SessionRequirement struct {
	CohortID    string          `json:"cohort_id"`
	SubjectCode string          `json:"subject_code"`
	Kind        RequirementKind `json:"kind"`
	Key         string          `json:"key"`
}

// Session is one scheduled teaching occurrence. Practical sessions carry
// PeriodSpan 3 and occupy Period..Period+2 on the same day in the same room.
type Session struct {
	ID          string    `db:"id" json:"id"`
	RunID       string    `db:"run_id" json:"run_id"`
	CohortID    string    `db:"cohort_id" json:"cohort_id"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	Day         string    `db:"day" json:"day"`
	Period      int       `db:"period" json:"period"`
	PeriodSpan  int       `db:"period_span" json:"period_span"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsPractical bool      `db:"is_practical" json:"is_practical"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Periods lists every period index the session occupies.
func (s Session) Periods() []int {
	span := s.PeriodSpan
	if span < 1 {
		span = 1
	}
	periods := make([]int, 0, span)
	for p := s.Period; p < s.Period+span; p++ {
		periods = append(periods, p)
	}
	return periods
}

// Placement failure reasons recorded per unresolved requirement.
const (
	FailureNoQualifiedTeacher = "NO_QUALIFIED_TEACHER_AVAILABLE"
	FailureNoRoomAvailable    = "NO_ROOM_AVAILABLE"
	FailureNoValidSlot        = "NO_SLOT_SATISFIES_DAY_CONSTRAINTS"
)

// PlacementFailure records a requirement the engine could not place within
// its retry budget. Non-fatal: the run continues and reports it.
type PlacementFailure struct {
	Requirement SessionRequirement `json:"requirement"`
	Reason      string             `json:"reason"`
}

// SessionFilter captures query options for listing committed sessions.
type SessionFilter struct {
	CohortID  string
	TeacherID string
	RoomID    string
	Day       string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
