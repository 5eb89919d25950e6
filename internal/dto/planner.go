package dto

import "time"

// PlanningOverrides lets a run replace parts of the configured horizon.
// Engine budgets stay server-side.
type PlanningOverrides struct {
	Days              []string `json:"days" validate:"omitempty,min=1,dive,required"`
	PeriodsPerDay     int      `json:"periodsPerDay" validate:"omitempty,min=1,max=12"`
	FirstLessonStart  string   `json:"firstLessonStart" validate:"omitempty,len=5"`
	Seed              *int64   `json:"seed"`
	ThesisDay         *string  `json:"thesisDay"`
	ThesisSubjectCode string   `json:"thesisSubjectCode"`
}

// GeneratePlanRequest asks the planner to build a weekly timetable proposal
// for the selected cohorts.
type GeneratePlanRequest struct {
	CohortIDs       []string           `json:"cohortIds" validate:"required,min=1,dive,required"`
	Overrides       *PlanningOverrides `json:"overrides"`
	IgnoreCommitted bool               `json:"ignoreCommitted"`
	Async           bool               `json:"async"`
}

// SessionView is one scheduled lesson in a proposal or committed plan.
type SessionView struct {
	ID          string `json:"id"`
	CohortID    string `json:"cohortId"`
	SubjectCode string `json:"subjectCode"`
	TeacherID   string `json:"teacherId"`
	RoomID      string `json:"roomId"`
	Day         string `json:"day"`
	Period      int    `json:"period"`
	PeriodSpan  int    `json:"periodSpan"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsPractical bool   `json:"isPractical"`
}

// PlacementFailureView reports demand the engine could not place.
type PlacementFailureView struct {
	CohortID    string `json:"cohortId"`
	SubjectCode string `json:"subjectCode"`
	Reason      string `json:"reason"`
}

// ViolationView is one remaining constraint breach.
type ViolationView struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	SessionIDs  []string `json:"sessionIds,omitempty"`
}

// ReportView summarises validation and repair results.
type ReportView struct {
	Violations         []ViolationView `json:"violations"`
	ResolverIterations int             `json:"resolverIterations"`
	ResolutionComplete bool            `json:"resolutionComplete"`
}

// RunStatsView carries engine counters for one run.
type RunStatsView struct {
	Requirements      int `json:"requirements"`
	SessionsPlaced    int `json:"sessionsPlaced"`
	PlacementAttempts int `json:"placementAttempts"`
}

// PlanningRunResponse is a full proposal, returned by generate and lookup.
type PlanningRunResponse struct {
	RunID     string                 `json:"runId"`
	Status    string                 `json:"status"`
	Score     float64                `json:"score"`
	Sessions  []SessionView          `json:"sessions"`
	Unplaced  []PlacementFailureView `json:"unplaced"`
	Report    ReportView             `json:"report"`
	Stats     RunStatsView           `json:"stats"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"`
}

// QueuedRunResponse acknowledges an asynchronous generation request.
type QueuedRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// SessionInput describes one externally supplied session for validation.
type SessionInput struct {
	ID          string `json:"id"`
	CohortID    string `json:"cohortId" validate:"required"`
	SubjectCode string `json:"subjectCode" validate:"required"`
	TeacherID   string `json:"teacherId" validate:"required"`
	RoomID      string `json:"roomId" validate:"required"`
	Day         string `json:"day" validate:"required"`
	Period      int    `json:"period" validate:"required,min=1"`
	PeriodSpan  int    `json:"periodSpan" validate:"omitempty,min=1,max=3"`
	IsPractical bool   `json:"isPractical"`
}

// ValidateScheduleRequest checks an arbitrary session set against all
// scheduling constraints without mutating anything.
type ValidateScheduleRequest struct {
	Sessions        []SessionInput     `json:"sessions" validate:"required,min=1,dive"`
	Overrides       *PlanningOverrides `json:"overrides"`
	IgnoreCommitted bool               `json:"ignoreCommitted"`
}

// ValidateScheduleResponse returns the violation catalogue findings.
type ValidateScheduleResponse struct {
	Valid      bool            `json:"valid"`
	Violations []ViolationView `json:"violations"`
}

// CommitPlanRequest persists a previously generated proposal.
type CommitPlanRequest struct {
	RunID string `json:"runId" validate:"required"`
}

// CommitPlanResponse confirms persistence of a proposal.
type CommitPlanResponse struct {
	RunID             string `json:"runId"`
	SessionsCommitted int    `json:"sessionsCommitted"`
}

// ExportQuery selects the rendering of a committed timetable.
type ExportQuery struct {
	CohortID string `form:"cohortId" json:"cohortId"`
	Format   string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportResponse points at a rendered timetable file.
type ExportResponse struct {
	FileName    string    `json:"fileName"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// SessionListQuery filters committed sessions.
type SessionListQuery struct {
	CohortID  string `form:"cohortId" json:"cohortId"`
	TeacherID string `form:"teacherId" json:"teacherId"`
	RoomID    string `form:"roomId" json:"roomId"`
	Day       string `form:"day" json:"day"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
	SortBy    string `form:"sortBy" json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
}
