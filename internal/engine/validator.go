package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// Validator evaluates the fixed catalogue of named constraints against a
// session set. It is a pure function of its input plus the committed-session
// snapshot captured at construction; validating twice yields identical
// reports.
type Validator struct {
	cfg      models.PlanningConfig
	subjects map[string]models.Subject
	rooms    map[string]models.Room
	cohorts  map[string]models.Cohort
	existing []models.Session
}

// NewValidator captures the reference data and cross-run snapshot used by
// every check.
func NewValidator(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session) *Validator {
	return &Validator{
		cfg:      cfg,
		subjects: ref.SubjectByCode(),
		rooms:    ref.RoomByID(),
		cohorts:  ref.CohortByID(),
		existing: existing,
	}
}

// Validate runs every constraint check in catalogue order.
func (v *Validator) Validate(sessions []models.Session) []models.Violation {
	checks := []func([]models.Session) []models.Violation{
		v.checkTeacherConflicts,
		v.checkRoomConflicts,
		v.checkPracticalBlocks,
		v.checkPracticalLabOnly,
		v.checkTheoryDailyLimit,
		v.checkTheoryDistribution,
		v.checkMinSessionsPerDay,
		v.checkPracticalOnlyDays,
		v.checkFridayCeiling,
		v.checkThesisDay,
		v.checkCompactness,
		v.checkTeacherBreaks,
		v.checkRoomConsistency,
		v.checkCrossRunConflicts,
		v.checkRoomCapacity,
	}

	var violations []models.Violation
	for _, check := range checks {
		violations = append(violations, check(sessions)...)
	}
	return violations
}

func (v *Validator) checkTeacherConflicts(sessions []models.Session) []models.Violation {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		for _, p := range s.Periods() {
			key := fmt.Sprintf("%s|%s|%d", s.TeacherID, s.Day, p)
			groups[key] = append(groups[key], s)
		}
	}
	return collisionViolations(groups, models.ViolationTeacherConflict, "teacher double-booked at")
}

func (v *Validator) checkRoomConflicts(sessions []models.Session) []models.Violation {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		for _, p := range s.Periods() {
			key := fmt.Sprintf("%s|%s|%d", s.RoomID, s.Day, p)
			groups[key] = append(groups[key], s)
		}
	}
	return collisionViolations(groups, models.ViolationRoomConflict, "room double-booked at")
}

func (v *Validator) checkPracticalBlocks(sessions []models.Session) []models.Violation {
	var violations []models.Violation
	blocks := make(map[string][]models.Session)
	for _, s := range sessions {
		if !s.IsPractical {
			continue
		}
		if s.PeriodSpan != models.PracticalBlockSpan || s.Period+s.PeriodSpan-1 > v.cfg.PeriodsPerDay {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationPracticalBlock,
				Description: fmt.Sprintf("practical %s for cohort %s is not a 3-consecutive-period block", s.SubjectCode, s.CohortID),
				SessionIDs:  []string{s.ID},
			})
		}
		blocks[s.CohortID+"|"+s.SubjectCode] = append(blocks[s.CohortID+"|"+s.SubjectCode], s)
	}
	for _, key := range sortedKeys(blocks) {
		group := blocks[key]
		if len(group) > 1 {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationPracticalBlock,
				Description: fmt.Sprintf("practical requirement %s scheduled more than once", key),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkPracticalLabOnly(sessions []models.Session) []models.Violation {
	var violations []models.Violation
	for _, s := range sessions {
		if !s.IsPractical {
			continue
		}
		if room, ok := v.rooms[s.RoomID]; !ok || !room.IsLab {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationPracticalLabOnly,
				Description: fmt.Sprintf("practical %s for cohort %s placed in non-lab room %s", s.SubjectCode, s.CohortID, s.RoomID),
				SessionIDs:  []string{s.ID},
			})
		}
	}
	return violations
}

func (v *Validator) checkTheoryDailyLimit(sessions []models.Session) []models.Violation {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		if s.IsPractical {
			continue
		}
		key := fmt.Sprintf("%s|%s|%s", s.CohortID, s.SubjectCode, s.Day)
		groups[key] = append(groups[key], s)
	}
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		if len(group) > 1 {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationTheoryDailyLimit,
				Description: fmt.Sprintf("theory subject scheduled twice on one day (%s)", key),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkTheoryDistribution(sessions []models.Session) []models.Violation {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		if s.IsPractical {
			continue
		}
		groups[s.CohortID+"|"+s.SubjectCode] = append(groups[s.CohortID+"|"+s.SubjectCode], s)
	}
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		days := make(map[string]bool)
		for _, s := range group {
			days[s.Day] = true
		}
		expected := len(group)
		if expected > len(v.cfg.Days) {
			expected = len(v.cfg.Days)
		}
		if len(days) < expected {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationTheoryDistribution,
				Description: fmt.Sprintf("theory units for %s reuse days: %d sessions on %d distinct days", key, len(group), len(days)),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkMinSessionsPerDay(sessions []models.Session) []models.Violation {
	if v.cfg.MinSessionsPerDay <= 0 {
		return nil
	}
	groups := v.byCohortDay(sessions)
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		if len(group) < v.cfg.MinSessionsPerDay {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationMinSessionsPerDay,
				Description: fmt.Sprintf("cohort day %s has %d sessions, minimum is %d", key, len(group), v.cfg.MinSessionsPerDay),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkPracticalOnlyDays(sessions []models.Session) []models.Violation {
	groups := v.byCohortDay(sessions)
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		allPractical := true
		for _, s := range group {
			if !s.IsPractical {
				allPractical = false
				break
			}
		}
		if allPractical && len(group) > 0 {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationPracticalOnlyDay,
				Description: fmt.Sprintf("cohort day %s holds practicals only", key),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkFridayCeiling(sessions []models.Session) []models.Violation {
	var violations []models.Violation
	for _, s := range sessions {
		if !v.cfg.IsFriday(s.Day) {
			continue
		}
		cutoff := v.cfg.FridayTheoryCutoff
		if s.IsPractical {
			cutoff = v.cfg.FridayPracticalCutoff
		}
		if cutoff > 0 && s.Period > cutoff {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationFridayCeiling,
				Description: fmt.Sprintf("session %s/%s starts period %d after the Friday ceiling %d", s.CohortID, s.SubjectCode, s.Period, cutoff),
				SessionIDs:  []string{s.ID},
			})
		}
	}
	return violations
}

func (v *Validator) checkThesisDay(sessions []models.Session) []models.Violation {
	if v.cfg.ThesisDay == "" {
		return nil
	}
	var violations []models.Violation
	for _, s := range sessions {
		if s.SubjectCode == v.cfg.ThesisSubjectCode {
			if s.Day != v.cfg.ThesisDay {
				violations = append(violations, models.Violation{
					Kind:        models.ViolationThesisDay,
					Description: fmt.Sprintf("thesis session for cohort %s placed outside the thesis day", s.CohortID),
					SessionIDs:  []string{s.ID},
				})
			}
			continue
		}
		if s.Day == v.cfg.ThesisDay && v.cohorts[s.CohortID].Seniority == 1 {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationThesisDay,
				Description: fmt.Sprintf("subject %s for final-year cohort %s occupies the reserved thesis day", s.SubjectCode, s.CohortID),
				SessionIDs:  []string{s.ID},
			})
		}
	}
	return violations
}

func (v *Validator) checkCompactness(sessions []models.Session) []models.Violation {
	groups := v.byCohortDay(sessions)
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		var periods []int
		for _, s := range group {
			periods = append(periods, s.Periods()...)
		}
		sort.Ints(periods)
		for i := 0; i < len(periods)-1; i++ {
			if periods[i+1]-periods[i] > 2 {
				violations = append(violations, models.Violation{
					Kind:        models.ViolationCompactness,
					Description: fmt.Sprintf("cohort day %s has an internal gap longer than one period", key),
					SessionIDs:  sessionIDs(group),
				})
				break
			}
		}
	}
	return violations
}

func (v *Validator) checkTeacherBreaks(sessions []models.Session) []models.Violation {
	theory := make(map[string]map[int]models.Session)
	for _, s := range sessions {
		if s.IsPractical {
			continue
		}
		key := s.TeacherID + "|" + s.Day
		if theory[key] == nil {
			theory[key] = make(map[int]models.Session)
		}
		for _, p := range s.Periods() {
			theory[key][p] = s
		}
	}
	var violations []models.Violation
	for _, key := range sortedKeys(theory) {
		periods := theory[key]
		starts := make([]int, 0, len(periods))
		for p := range periods {
			if _, ok := periods[p-1]; ok {
				continue // only evaluate run starts
			}
			starts = append(starts, p)
		}
		sort.Ints(starts)
		for _, p := range starts {
			run := 0
			for q := p; ; q++ {
				if _, ok := periods[q]; !ok {
					break
				}
				run++
			}
			if run > 2 {
				ids := make(map[string]bool)
				for q := p; q < p+run; q++ {
					ids[periods[q].ID] = true
				}
				violations = append(violations, models.Violation{
					Kind:        models.ViolationTeacherBreak,
					Description: fmt.Sprintf("teacher day %s has %d consecutive theory periods without a break", key, run),
					SessionIDs:  sortedSet(ids),
				})
			}
		}
	}
	return violations
}

func (v *Validator) checkRoomConsistency(sessions []models.Session) []models.Violation {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		if s.IsPractical {
			continue
		}
		groups[s.CohortID+"|"+s.Day] = append(groups[s.CohortID+"|"+s.Day], s)
	}
	var violations []models.Violation
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		rooms := make(map[string]bool)
		for _, s := range group {
			rooms[s.RoomID] = true
		}
		if len(rooms) > 1 {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationRoomConsistency,
				Description: fmt.Sprintf("cohort day %s spreads theory sessions across %d rooms", key, len(rooms)),
				SessionIDs:  sessionIDs(group),
			})
		}
	}
	return violations
}

func (v *Validator) checkCrossRunConflicts(sessions []models.Session) []models.Violation {
	occupied := make(map[string]string)
	for _, s := range v.existing {
		for _, p := range s.Periods() {
			occupied[fmt.Sprintf("T|%s|%s|%d", s.TeacherID, s.Day, p)] = s.ID
			occupied[fmt.Sprintf("R|%s|%s|%d", s.RoomID, s.Day, p)] = s.ID
		}
	}
	var violations []models.Violation
	for _, s := range sessions {
		for _, p := range s.Periods() {
			if _, taken := occupied[fmt.Sprintf("T|%s|%s|%d", s.TeacherID, s.Day, p)]; taken {
				violations = append(violations, models.Violation{
					Kind:        models.ViolationCrossRunConflict,
					Description: fmt.Sprintf("teacher %s already committed elsewhere at %s period %d", s.TeacherID, s.Day, p),
					SessionIDs:  []string{s.ID},
				})
			}
			if _, taken := occupied[fmt.Sprintf("R|%s|%s|%d", s.RoomID, s.Day, p)]; taken {
				violations = append(violations, models.Violation{
					Kind:        models.ViolationCrossRunConflict,
					Description: fmt.Sprintf("room %s already committed elsewhere at %s period %d", s.RoomID, s.Day, p),
					SessionIDs:  []string{s.ID},
				})
			}
		}
	}
	return violations
}

func (v *Validator) checkRoomCapacity(sessions []models.Session) []models.Violation {
	var violations []models.Violation
	for _, s := range sessions {
		room, ok := v.rooms[s.RoomID]
		cohort := v.cohorts[s.CohortID]
		if ok && room.Capacity < cohort.Size {
			violations = append(violations, models.Violation{
				Kind:        models.ViolationRoomCapacity,
				Description: fmt.Sprintf("room %s (capacity %d) too small for cohort %s (size %d)", room.ID, room.Capacity, cohort.ID, cohort.Size),
				SessionIDs:  []string{s.ID},
			})
		}
	}
	return violations
}

func (v *Validator) byCohortDay(sessions []models.Session) map[string][]models.Session {
	groups := make(map[string][]models.Session)
	for _, s := range sessions {
		groups[s.CohortID+"|"+s.Day] = append(groups[s.CohortID+"|"+s.Day], s)
	}
	return groups
}

func collisionViolations(groups map[string][]models.Session, kind, prefix string) []models.Violation {
	var violations []models.Violation
	reported := make(map[string]bool)
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		ids := sessionIDs(group)
		dedupe := fmt.Sprint(ids)
		if reported[dedupe] {
			continue
		}
		reported[dedupe] = true
		violations = append(violations, models.Violation{
			Kind:        kind,
			Description: fmt.Sprintf("%s %s", prefix, key),
			SessionIDs:  ids,
		})
	}
	return violations
}

func sessionIDs(sessions []models.Session) []string {
	ids := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		ids[s.ID] = true
	}
	return sortedSet(ids)
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
