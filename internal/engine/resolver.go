package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const defaultResolverIterations = 10

// resolver attempts local repairs on validator violations: move a session to
// another free slot, hand it to another qualified teacher, or move it to
// another compliant room. It iterates to a fixed point or the iteration
// budget and keeps the best (lowest-violation-count) schedule seen.
type resolver struct {
	cfg        models.PlanningConfig
	subjects   map[string]models.Subject
	cohorts    map[string]models.Cohort
	teachers   []models.Teacher
	teacherIdx map[string]models.Teacher
	rooms      []models.Room
	committed  []models.Session
	ledger     *Ledger
	validator  *Validator
	logger     *zap.Logger
}

func newResolver(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session, ledger *Ledger, validator *Validator, logger *zap.Logger) *resolver {
	teachers := make([]models.Teacher, len(ref.Teachers))
	copy(teachers, ref.Teachers)
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })

	rooms := make([]models.Room, len(ref.Rooms))
	copy(rooms, ref.Rooms)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	return &resolver{
		cfg:        cfg,
		subjects:   ref.SubjectByCode(),
		cohorts:    ref.CohortByID(),
		teachers:   teachers,
		teacherIdx: ref.TeacherByID(),
		rooms:      rooms,
		committed:  existing,
		ledger:     ledger,
		validator:  validator,
		logger:     logger,
	}
}

// resolve runs the repair loop. The returned report carries the violations
// of the best schedule seen; ResolutionComplete is false when the iteration
// budget ran out with violations remaining.
func (r *resolver) resolve(sessions []models.Session) ([]models.Session, models.ViolationReport) {
	maxIterations := r.cfg.ResolverMaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultResolverIterations
	}

	current := cloneSessions(sessions)
	violations := r.validator.Validate(current)
	best := cloneSessions(current)
	bestViolations := violations

	iterations := 0
	for iterations < maxIterations && len(violations) > 0 {
		iterations++

		repairedAny := false
		for _, violation := range violations {
			if r.repair(current, violation) {
				repairedAny = true
			}
		}

		violations = r.validator.Validate(current)
		if len(violations) < len(bestViolations) {
			best = cloneSessions(current)
			bestViolations = violations
		}
		if !repairedAny {
			break
		}
	}

	if len(bestViolations) > 0 {
		r.logger.Info("conflict resolution incomplete",
			zap.Int("iterations", iterations),
			zap.Int("violations_remaining", len(bestViolations)),
		)
	}

	return best, models.ViolationReport{
		Violations:         bestViolations,
		ResolverIterations: iterations,
		ResolutionComplete: len(bestViolations) == 0,
	}
}

// repair mutates one offending session in place. Repairs are tried in
// priority order: re-slot, re-teacher, re-room. Each swap confirms the new
// reservation is free before releasing the old one.
func (r *resolver) repair(sessions []models.Session, violation models.Violation) bool {
	idx := r.offendingIndex(sessions, violation)
	if idx < 0 {
		return false
	}
	if r.tryMoveSlot(sessions, idx) {
		return true
	}
	if r.tryReassignTeacher(sessions, idx) {
		return true
	}
	return r.tryReassignRoom(sessions, idx)
}

// offendingIndex picks the first offender in placement order, so repairs do
// not depend on the lexical order of generated session IDs.
func (r *resolver) offendingIndex(sessions []models.Session, violation models.Violation) int {
	ids := make(map[string]bool, len(violation.SessionIDs))
	for _, id := range violation.SessionIDs {
		ids[id] = true
	}
	for i := range sessions {
		if ids[sessions[i].ID] {
			return i
		}
	}
	return -1
}

func (r *resolver) tryMoveSlot(sessions []models.Session, idx int) bool {
	s := sessions[idx]
	span := s.PeriodSpan
	if span < 1 {
		span = 1
	}
	teacher, knownTeacher := r.teacherIdx[s.TeacherID]
	for _, day := range r.cfg.Days {
		for period := 1; period+span-1 <= r.cfg.PeriodsPerDay; period++ {
			if day == s.Day && period == s.Period {
				continue
			}
			if !r.slotAllowed(sessions, s, day, period, span) {
				continue
			}
			if knownTeacher && !r.teacherFits(sessions, teacher, s.ID, day, period, span) {
				continue
			}
			candidate := s
			candidate.Day = day
			candidate.Period = period
			candidate.StartTime, candidate.EndTime = r.cfg.PeriodWindow(period, span)
			if r.swap(sessions, idx, candidate) {
				return true
			}
		}
	}
	return false
}

func (r *resolver) tryReassignTeacher(sessions []models.Session, idx int) bool {
	s := sessions[idx]
	span := len(s.Periods())
	for _, teacher := range r.teachers {
		if teacher.ID == s.TeacherID || !teacher.Active || !teacher.QualifiedFor(s.SubjectCode) {
			continue
		}
		if !r.teacherFits(sessions, teacher, s.ID, s.Day, s.Period, span) {
			continue
		}
		candidate := s
		candidate.TeacherID = teacher.ID
		if r.swap(sessions, idx, candidate) {
			return true
		}
	}
	return false
}

func (r *resolver) tryReassignRoom(sessions []models.Session, idx int) bool {
	s := sessions[idx]
	cohort := r.cohorts[s.CohortID]
	for _, room := range r.rooms {
		if room.ID == s.RoomID {
			continue
		}
		if s.IsPractical && !room.IsLab {
			continue
		}
		if room.Capacity < cohort.Size {
			continue
		}
		candidate := s
		candidate.RoomID = room.ID
		if r.swap(sessions, idx, candidate) {
			return true
		}
	}
	return false
}

// swap releases the old reservation only after the candidate's slots are
// confirmed free, so a failed repair leaves the ledger untouched.
func (r *resolver) swap(sessions []models.Session, idx int, candidate models.Session) bool {
	if !r.ledger.FreeFor(candidate) {
		return false
	}
	r.ledger.Release(sessions[idx])
	if err := r.ledger.Reserve(candidate); err != nil {
		// Cannot collide after FreeFor in a single-threaded run, but restore
		// the original reservation rather than leak the slot.
		_ = r.ledger.Reserve(sessions[idx])
		return false
	}
	sessions[idx] = candidate
	return true
}

// slotAllowed re-applies the day-rule hard constraints so a repair never
// introduces a violation that placement avoided.
func (r *resolver) slotAllowed(sessions []models.Session, s models.Session, day string, period, span int) bool {
	if r.cfg.IsFriday(day) {
		cutoff := r.cfg.FridayTheoryCutoff
		if s.IsPractical {
			cutoff = r.cfg.FridayPracticalCutoff
		}
		if cutoff > 0 && period > cutoff {
			return false
		}
	}

	if r.cfg.ThesisDay != "" {
		if s.SubjectCode == r.cfg.ThesisSubjectCode {
			if day != r.cfg.ThesisDay {
				return false
			}
		} else if day == r.cfg.ThesisDay && r.cohorts[s.CohortID].Seniority == 1 {
			return false
		}
	}

	if !s.IsPractical {
		for _, other := range sessions {
			if other.ID == s.ID || other.IsPractical {
				continue
			}
			if other.CohortID == s.CohortID && other.SubjectCode == s.SubjectCode && other.Day == day {
				return false
			}
		}
	}
	return true
}

// teacherFits re-applies the placement-time teacher rules at a candidate
// assignment: the explicit blocked periods and the max-sessions/day cap. The
// cap counts the sessions under repair (minus the one being changed) plus the
// committed sessions from earlier runs, the same population the placer
// charges against the load caps.
func (r *resolver) teacherFits(sessions []models.Session, t models.Teacher, sessionID, day string, period, span int) bool {
	blocked := t.BlockedPeriodMap()[day]
	for offset := 0; offset < span; offset++ {
		for _, b := range blocked {
			if period+offset == b {
				return false
			}
		}
	}

	if t.MaxSessionsPerDay <= 0 {
		return true
	}
	load := 0
	for _, other := range sessions {
		if other.ID == sessionID || other.TeacherID != t.ID || other.Day != day {
			continue
		}
		load += len(other.Periods())
	}
	for _, other := range r.committed {
		if other.TeacherID == t.ID && other.Day == day {
			load += len(other.Periods())
		}
	}
	return load+span <= t.MaxSessionsPerDay
}

func cloneSessions(sessions []models.Session) []models.Session {
	out := make([]models.Session, len(sessions))
	copy(out, sessions)
	return out
}
