package models

// Constraint kinds evaluated by the schedule validator. Each name identifies
// one check in the fixed catalogue.
const (
	ViolationTeacherConflict    = "TEACHER_CONFLICT"
	ViolationRoomConflict       = "ROOM_CONFLICT"
	ViolationPracticalBlock     = "PRACTICAL_BLOCK"
	ViolationPracticalLabOnly   = "PRACTICAL_LAB_ONLY"
	ViolationTheoryDailyLimit   = "THEORY_DAILY_LIMIT"
	ViolationTheoryDistribution = "THEORY_DISTRIBUTION"
	ViolationMinSessionsPerDay  = "MIN_SESSIONS_PER_DAY"
	ViolationPracticalOnlyDay   = "PRACTICAL_ONLY_DAY"
	ViolationFridayCeiling      = "FRIDAY_CEILING"
	ViolationThesisDay          = "THESIS_DAY"
	ViolationCompactness        = "COMPACTNESS"
	ViolationTeacherBreak       = "TEACHER_BREAK"
	ViolationRoomConsistency    = "ROOM_CONSISTENCY"
	ViolationCrossRunConflict   = "CROSS_RUN_CONFLICT"
	ViolationRoomCapacity       = "ROOM_CAPACITY"
)

// Violation reports one constraint failure against a candidate schedule.
type Violation struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	SessionIDs  []string `json:"session_ids,omitempty"`
}

// ViolationReport aggregates validator output for one schedule, plus the
// resolver's outcome when it ran.
type ViolationReport struct {
	Violations         []Violation `json:"violations"`
	ResolverIterations int         `json:"resolver_iterations"`
	ResolutionComplete bool        `json:"resolution_complete"`
}
