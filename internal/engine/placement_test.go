package engine

import (
	"math/rand"
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func newTestPlacer(cfg models.PlanningConfig, ref models.ReferenceData, existing []models.Session) *placer {
	return newPlacer(cfg, ref, existing, NewLedger(existing), rand.New(rand.NewSource(cfg.Seed)), zap.NewNop())
}

func theoryRequirement(cohortID, code string) models.SessionRequirement {
	return models.SessionRequirement{
		CohortID:    cohortID,
		SubjectCode: code,
		Kind:        models.RequirementTheoryUnit,
		Key:         cohortID + "|" + code + "|theory|0",
	}
}

func TestPlacerHonoursBlockedPeriods(t *testing.T) {
	cfg := testConfig()
	cfg.Days = []string{"MONDAY"}
	cfg.PeriodsPerDay = 3

	ref := models.ReferenceData{
		Subjects: []models.Subject{{ID: "s-math", Code: "MATH101", CreditHours: 1}},
		Teachers: []models.Teacher{{
			ID: "t-1", FullName: "Dewi Lestari", Active: true,
			QualifiedSubjects: []string{"MATH101"},
			BlockedPeriods:    types.JSONText(`{"MONDAY": [1, 2]}`),
		}},
		Rooms:   []models.Room{{ID: "r-101", Capacity: 40}},
		Cohorts: []models.Cohort{{ID: "c-1", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101"}}},
	}

	p := newTestPlacer(cfg, ref, nil)
	session, failure := p.place(theoryRequirement("c-1", "MATH101"))
	require.Nil(t, failure)
	assert.Equal(t, 3, session.Period, "periods 1 and 2 are explicitly blocked")
}

func TestPlacerHonoursFridayCutoffs(t *testing.T) {
	cfg := testConfig()
	cfg.Days = []string{"FRIDAY"}
	cfg.PeriodsPerDay = 7

	ref := testReference()
	p := newTestPlacer(cfg, ref, nil)

	session, failure := p.place(theoryRequirement("c-1", "MATH101"))
	require.Nil(t, failure)
	assert.LessOrEqual(t, session.Period, cfg.FridayTheoryCutoff)

	block, failure := p.place(models.SessionRequirement{
		CohortID: "c-1", SubjectCode: "PHYS-LAB", Kind: models.RequirementPracticalBlock,
		Key: "c-1|PHYS-LAB|practical|0",
	})
	require.Nil(t, failure)
	assert.LessOrEqual(t, block.Period, cfg.FridayPracticalCutoff)
}

func TestPlacerEnforcesTeacherDailyCap(t *testing.T) {
	cfg := testConfig()
	cfg.Days = []string{"MONDAY"}
	cfg.PeriodsPerDay = 4

	ref := models.ReferenceData{
		Subjects: []models.Subject{
			{ID: "s-m", Code: "MATH101", CreditHours: 1},
			{ID: "s-e", Code: "ENG201", CreditHours: 1},
		},
		Teachers: []models.Teacher{{
			ID: "t-1", Active: true, MaxSessionsPerDay: 1,
			QualifiedSubjects: []string{"MATH101", "ENG201"},
		}},
		Rooms: []models.Room{{ID: "r-101", Capacity: 40}},
		Cohorts: []models.Cohort{
			{ID: "c-1", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101", "ENG201"}},
		},
	}

	p := newTestPlacer(cfg, ref, nil)
	_, failure := p.place(theoryRequirement("c-1", "MATH101"))
	require.Nil(t, failure)

	_, failure = p.place(theoryRequirement("c-1", "ENG201"))
	require.NotNil(t, failure, "the only teacher already hit the daily cap")
	assert.Equal(t, models.FailureNoQualifiedTeacher, failure.Reason)
}

func TestPlacerBalancesTeacherLoad(t *testing.T) {
	cfg := testConfig()
	ref := models.ReferenceData{
		Subjects: []models.Subject{{ID: "s-m", Code: "MATH101", CreditHours: 2}},
		Teachers: []models.Teacher{
			{ID: "t-1", Active: true, QualifiedSubjects: []string{"MATH101"}},
			{ID: "t-2", Active: true, QualifiedSubjects: []string{"MATH101"}},
		},
		Rooms: []models.Room{{ID: "r-101", Capacity: 40}, {ID: "r-102", Capacity: 40}},
		Cohorts: []models.Cohort{
			{ID: "c-1", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101"}},
			{ID: "c-2", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101"}},
		},
	}

	requirements, err := ExpandRequirements(ref)
	require.NoError(t, err)

	p := newTestPlacer(cfg, ref, nil)
	sessions, failures := p.placeAll(requirements)
	require.Empty(t, failures)

	weekly := make(map[string]int)
	for _, s := range sessions {
		weekly[s.TeacherID]++
	}
	assert.Positive(t, weekly["t-1"])
	assert.Positive(t, weekly["t-2"])
	assert.Equal(t, 4, weekly["t-1"]+weekly["t-2"])
}

func TestPlacerSpreadsTheoryUnitsAcrossDays(t *testing.T) {
	cfg := testConfig()
	ref := models.ReferenceData{
		Subjects: []models.Subject{{ID: "s-m", Code: "MATH101", CreditHours: 3}},
		Teachers: []models.Teacher{{ID: "t-1", Active: true, QualifiedSubjects: []string{"MATH101"}}},
		Rooms:    []models.Room{{ID: "r-101", Capacity: 40}},
		Cohorts:  []models.Cohort{{ID: "c-1", Size: 30, Seniority: 3, SubjectCodes: []string{"MATH101"}}},
	}

	requirements, err := ExpandRequirements(ref)
	require.NoError(t, err)
	require.Len(t, requirements, 3)

	sessions, failures := newTestPlacer(cfg, ref, nil).placeAll(requirements)
	require.Empty(t, failures)

	days := make(map[string]bool)
	for _, s := range sessions {
		assert.False(t, days[s.Day], "two MATH101 units on %s", s.Day)
		days[s.Day] = true
	}
}

func TestPlacerFailureReasons(t *testing.T) {
	cfg := testConfig()
	cfg.ThesisDay = "MONDAY"
	cfg.ThesisSubjectCode = "THESIS"
	cfg.Days = []string{"MONDAY"}
	cfg.PeriodsPerDay = 7

	ref := models.ReferenceData{
		Subjects: []models.Subject{
			{ID: "s-m", Code: "MATH101", CreditHours: 1},
			{ID: "s-t", Code: "THESIS", CreditHours: 1},
		},
		Teachers: []models.Teacher{{ID: "t-1", Active: true, QualifiedSubjects: []string{"THESIS"}}},
		Rooms:    []models.Room{{ID: "r-101", Capacity: 40}},
		Cohorts: []models.Cohort{
			// Seniority 1 cohorts may not take non-thesis subjects on thesis day.
			{ID: "c-1", Size: 30, Seniority: 1, SubjectCodes: []string{"MATH101", "THESIS"}},
		},
	}

	p := newTestPlacer(cfg, ref, nil)

	_, failure := p.place(theoryRequirement("c-1", "MATH101"))
	require.NotNil(t, failure)
	assert.Equal(t, models.FailureNoValidSlot, failure.Reason, "the one-day week is the thesis day")

	ref.Teachers = nil
	p = newTestPlacer(cfg, ref, nil)
	_, failure = p.place(theoryRequirement("c-1", "THESIS"))
	require.NotNil(t, failure)
	assert.Equal(t, models.FailureNoQualifiedTeacher, failure.Reason)
}
