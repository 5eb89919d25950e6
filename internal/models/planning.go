package models

import "time"

// PlanningConfig describes one planning run: the weekly horizon, the engine
// budgets, and the rule thresholds shared by every cohort in the run.
type PlanningConfig struct {
	Days                  []string       `json:"days"`
	PeriodsPerDay         int            `json:"periods_per_day"`
	LessonDuration        time.Duration  `json:"lesson_duration"`
	FirstLessonStart      string         `json:"first_lesson_start"`
	Seed                  int64          `json:"seed"`
	RetryBudget           int            `json:"retry_budget"`
	ResolverMaxIterations int            `json:"resolver_max_iterations"`
	FridayName            string         `json:"friday_name"`
	FridayTheoryCutoff    int            `json:"friday_theory_cutoff"`
	FridayPracticalCutoff int            `json:"friday_practical_cutoff"`
	ThesisDay             string         `json:"thesis_day"`
	ThesisSubjectCode     string         `json:"thesis_subject_code"`
	MinSessionsPerDay     int            `json:"min_sessions_per_day"`
	HomeBuildings         map[int]string `json:"home_buildings,omitempty"`
}

// Periods returns the ordered 1-based period indices of a day.
func (c PlanningConfig) Periods() []int {
	periods := make([]int, 0, c.PeriodsPerDay)
	for p := 1; p <= c.PeriodsPerDay; p++ {
		periods = append(periods, p)
	}
	return periods
}

// HasDay reports whether the given day name belongs to the planning week.
func (c PlanningConfig) HasDay(day string) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// HasPeriod reports whether the 1-based period index exists in the config.
func (c PlanningConfig) HasPeriod(period int) bool {
	return period >= 1 && period <= c.PeriodsPerDay
}

// IsFriday reports whether the day carries the Friday time ceiling.
func (c PlanningConfig) IsFriday(day string) bool {
	return c.FridayName != "" && day == c.FridayName
}

// PeriodWindow derives the wall-clock start and end ("15:04") of a session
// beginning at the given period and spanning span consecutive periods.
func (c PlanningConfig) PeriodWindow(period, span int) (string, string) {
	base, err := time.Parse("15:04", c.FirstLessonStart)
	if err != nil {
		base, _ = time.Parse("15:04", "08:00")
	}
	start := base.Add(time.Duration(period-1) * c.LessonDuration)
	end := start.Add(time.Duration(span) * c.LessonDuration)
	return start.Format("15:04"), end.Format("15:04")
}

// ReferenceData bundles the read-only records a planning run consumes.
type ReferenceData struct {
	Subjects []Subject `json:"subjects"`
	Teachers []Teacher `json:"teachers"`
	Rooms    []Room    `json:"rooms"`
	Cohorts  []Cohort  `json:"cohorts"`
}

// SubjectByCode builds a lookup map keyed by subject code.
func (r ReferenceData) SubjectByCode() map[string]Subject {
	m := make(map[string]Subject, len(r.Subjects))
	for _, s := range r.Subjects {
		m[s.Code] = s
	}
	return m
}

// TeacherByID builds a lookup map keyed by teacher id.
func (r ReferenceData) TeacherByID() map[string]Teacher {
	m := make(map[string]Teacher, len(r.Teachers))
	for _, t := range r.Teachers {
		m[t.ID] = t
	}
	return m
}

// RoomByID builds a lookup map keyed by room id.
func (r ReferenceData) RoomByID() map[string]Room {
	m := make(map[string]Room, len(r.Rooms))
	for _, rm := range r.Rooms {
		m[rm.ID] = rm
	}
	return m
}

// CohortByID builds a lookup map keyed by cohort id.
func (r ReferenceData) CohortByID() map[string]Cohort {
	m := make(map[string]Cohort, len(r.Cohorts))
	for _, c := range r.Cohorts {
		m[c.ID] = c
	}
	return m
}
