package engine

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const defaultRetryBudget = 300

// teacherLoad tracks how many periods a teacher currently teaches, used both
// for the max-sessions/day cap and as a load-balancing tie-break.
type teacherLoad struct {
	perDay map[string]int
	weekly int
}

// placer runs the core search: for each session requirement it finds a
// (day, period, teacher, room) assignment consistent with the ledger and the
// room policy, within a bounded per-requirement retry budget.
type placer struct {
	cfg      models.PlanningConfig
	subjects map[string]models.Subject
	cohorts  map[string]models.Cohort
	teachers []models.Teacher
	blocked  map[string]map[string]map[int]bool
	loads    map[string]*teacherLoad
	ledger   *Ledger
	rooms    *roomPolicy
	rng      *rand.Rand
	logger   *zap.Logger

	subjectDays map[string]map[string]bool
	attempts    int
}

func newPlacer(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session, ledger *Ledger, rng *rand.Rand, logger *zap.Logger) *placer {
	teachers := make([]models.Teacher, len(ref.Teachers))
	copy(teachers, ref.Teachers)
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })

	blocked := make(map[string]map[string]map[int]bool, len(teachers))
	loads := make(map[string]*teacherLoad, len(teachers))
	for _, t := range teachers {
		byDay := make(map[string]map[int]bool)
		for day, periods := range t.BlockedPeriodMap() {
			set := make(map[int]bool, len(periods))
			for _, p := range periods {
				set[p] = true
			}
			byDay[day] = set
		}
		blocked[t.ID] = byDay
		loads[t.ID] = &teacherLoad{perDay: make(map[string]int)}
	}

	p := &placer{
		cfg:         cfg,
		subjects:    ref.SubjectByCode(),
		cohorts:     ref.CohortByID(),
		teachers:    teachers,
		blocked:     blocked,
		loads:       loads,
		ledger:      ledger,
		rooms:       newRoomPolicy(ref.Rooms, cfg.HomeBuildings, ledger),
		rng:         rng,
		logger:      logger,
		subjectDays: make(map[string]map[string]bool),
	}

	// Committed sessions from earlier runs count toward teacher load caps.
	for _, s := range existing {
		if load, ok := p.loads[s.TeacherID]; ok {
			span := len(s.Periods())
			load.perDay[s.Day] += span
			load.weekly += span
		}
	}
	return p
}

// placeAll processes requirements in their deterministic order and returns
// the placed sessions plus a failure record for every requirement that
// exhausted its retry budget.
func (p *placer) placeAll(requirements []models.SessionRequirement) ([]models.Session, []models.PlacementFailure) {
	var sessions []models.Session
	var failures []models.PlacementFailure

	for _, req := range requirements {
		session, failure := p.place(req)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, failures
}

func (p *placer) place(req models.SessionRequirement) (*models.Session, *models.PlacementFailure) {
	subject := p.subjects[req.SubjectCode]
	cohort := p.cohorts[req.CohortID]

	span := 1
	if req.Kind == models.RequirementPracticalBlock {
		span = models.PracticalBlockSpan
	}

	budget := p.cfg.RetryBudget
	if budget <= 0 {
		budget = defaultRetryBudget
	}

	sawValidSlot := false
	sawFreeTeacher := false

	for i, candidate := range candidateSlots(p.cfg, span, p.rng) {
		if i >= budget {
			break
		}
		p.attempts++

		if !p.allowedSlot(req, subject, cohort, candidate.Day, candidate.Period, span) {
			continue
		}
		sawValidSlot = true

		teacher, ok := p.findTeacher(subject.Code, candidate.Day, candidate.Period, span)
		if !ok {
			continue
		}
		sawFreeTeacher = true

		room, ok := p.rooms.pickRoom(req, cohort, candidate.Day, candidate.Period, span)
		if !ok {
			continue
		}

		start, end := p.cfg.PeriodWindow(candidate.Period, span)
		session := models.Session{
			ID:          uuid.NewString(),
			CohortID:    req.CohortID,
			SubjectCode: req.SubjectCode,
			TeacherID:   teacher.ID,
			RoomID:      room.ID,
			Day:         candidate.Day,
			Period:      candidate.Period,
			PeriodSpan:  span,
			StartTime:   start,
			EndTime:     end,
			IsPractical: subject.IsPractical,
		}

		// A collision here means the freedom checks raced a prior reservation
		// within this run; retry the next candidate rather than surfacing it.
		if err := p.ledger.Reserve(session); err != nil {
			continue
		}

		p.recordPlacement(req, teacher.ID, candidate.Day, span)
		return &session, nil
	}

	reason := models.FailureNoValidSlot
	if sawValidSlot {
		reason = models.FailureNoQualifiedTeacher
		if sawFreeTeacher {
			reason = models.FailureNoRoomAvailable
		}
	}
	p.logger.Debug("requirement unplaced",
		zap.String("cohort", req.CohortID),
		zap.String("subject", req.SubjectCode),
		zap.String("reason", reason),
	)
	return nil, &models.PlacementFailure{Requirement: req, Reason: reason}
}

// allowedSlot applies the cheap hard rules before any resource lookup:
// Friday cutoffs, thesis-day exclusivity, and the same-subject-same-day
// exclusion for theory units.
func (p *placer) allowedSlot(req models.SessionRequirement, subject models.Subject, cohort models.Cohort, day string, period, span int) bool {
	if p.cfg.IsFriday(day) {
		if req.Kind == models.RequirementPracticalBlock {
			if p.cfg.FridayPracticalCutoff > 0 && period > p.cfg.FridayPracticalCutoff {
				return false
			}
		} else if p.cfg.FridayTheoryCutoff > 0 && period > p.cfg.FridayTheoryCutoff {
			return false
		}
	}

	if p.cfg.ThesisDay != "" {
		if subject.Code == p.cfg.ThesisSubjectCode {
			if day != p.cfg.ThesisDay {
				return false
			}
		} else if day == p.cfg.ThesisDay && cohort.Seniority == 1 {
			return false
		}
	}

	if req.Kind == models.RequirementTheoryUnit {
		if p.subjectDays[req.CohortID+"|"+req.SubjectCode][day] {
			return false
		}
	}
	return true
}

// findTeacher returns the least-loaded qualified teacher free for the whole
// span, honouring explicit blocked periods and the max-sessions/day cap.
func (p *placer) findTeacher(subjectCode, day string, period, span int) (models.Teacher, bool) {
	candidates := make([]models.Teacher, 0, len(p.teachers))
	for _, t := range p.teachers {
		if t.Active && t.QualifiedFor(subjectCode) {
			candidates = append(candidates, t)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := p.loads[candidates[i].ID], p.loads[candidates[j].ID]
		if a.perDay[day] != b.perDay[day] {
			return a.perDay[day] < b.perDay[day]
		}
		if a.weekly != b.weekly {
			return a.weekly < b.weekly
		}
		return candidates[i].ID < candidates[j].ID
	})

	for _, t := range candidates {
		if !p.teacherAvailable(t, day, period, span) {
			continue
		}
		return t, true
	}
	return models.Teacher{}, false
}

func (p *placer) teacherAvailable(t models.Teacher, day string, period, span int) bool {
	load := p.loads[t.ID]
	if t.MaxSessionsPerDay > 0 && load.perDay[day]+span > t.MaxSessionsPerDay {
		return false
	}
	for offset := 0; offset < span; offset++ {
		slot := period + offset
		if p.blocked[t.ID][day][slot] {
			return false
		}
		if !p.ledger.TeacherFree(t.ID, day, slot) {
			return false
		}
	}
	return true
}

func (p *placer) recordPlacement(req models.SessionRequirement, teacherID, day string, span int) {
	load := p.loads[teacherID]
	load.perDay[day] += span
	load.weekly += span

	if req.Kind == models.RequirementTheoryUnit {
		key := req.CohortID + "|" + req.SubjectCode
		if p.subjectDays[key] == nil {
			p.subjectDays[key] = make(map[string]bool)
		}
		p.subjectDays[key][day] = true
	}
}
