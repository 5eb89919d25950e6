package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func violationKinds(violations []models.Violation) []string {
	kinds := make([]string, 0, len(violations))
	for _, v := range violations {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

func findViolations(violations []models.Violation, kind string) []models.Violation {
	var out []models.Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestValidatorReportsTeacherAndRoomConflicts(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	sessions := []models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101", Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "b", CohortID: "c-2", SubjectCode: "ENG201", TeacherID: "t-1", RoomID: "r-101", Day: "MONDAY", Period: 1, PeriodSpan: 1},
	}

	violations := v.Validate(sessions)
	teacher := findViolations(violations, models.ViolationTeacherConflict)
	require.Len(t, teacher, 1)
	assert.Equal(t, []string{"a", "b"}, teacher[0].SessionIDs)

	room := findViolations(violations, models.ViolationRoomConflict)
	require.Len(t, room, 1)
}

func TestValidatorPracticalBlockShape(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	sessions := []models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "PHYS-LAB", TeacherID: "t-1", RoomID: "r-lab",
			Day: "MONDAY", Period: 1, PeriodSpan: 2, IsPractical: true},
		// Starts too late for the span to fit inside the day.
		{ID: "b", CohortID: "c-1", SubjectCode: "PHYS-LAB", TeacherID: "t-1", RoomID: "r-lab",
			Day: "TUESDAY", Period: 6, PeriodSpan: 3, IsPractical: true},
	}

	violations := v.Validate(sessions)
	blocks := findViolations(violations, models.ViolationPracticalBlock)
	require.Len(t, blocks, 3, "two malformed blocks plus the duplicate-requirement finding")
}

func TestValidatorPracticalOutsideLab(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "PHYS-LAB", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 3, IsPractical: true},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationPracticalLabOnly)
}

func TestValidatorFridayCeiling(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "FRIDAY", Period: 7, PeriodSpan: 1},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationFridayCeiling)

	violations = v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "FRIDAY", Period: 6, PeriodSpan: 1},
	})
	assert.NotContains(t, violationKinds(violations), models.ViolationFridayCeiling)
}

func TestValidatorThesisDayExclusivity(t *testing.T) {
	cfg := testConfig()
	cfg.ThesisDay = "WEDNESDAY"
	cfg.ThesisSubjectCode = "THESIS"

	ref := testReference()
	ref.Subjects = append(ref.Subjects, models.Subject{ID: "s-thesis", Code: "THESIS", CreditHours: 1})
	ref.Cohorts = append(ref.Cohorts, models.Cohort{ID: "c-final", Size: 20, Seniority: 1})
	v := NewValidator(cfg, ref, nil)

	violations := v.Validate([]models.Session{
		// Thesis scheduled off the thesis day.
		{ID: "a", CohortID: "c-final", SubjectCode: "THESIS", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		// Regular subject for a final-year cohort on the thesis day.
		{ID: "b", CohortID: "c-final", SubjectCode: "MATH101", TeacherID: "t-2", RoomID: "r-102",
			Day: "WEDNESDAY", Period: 1, PeriodSpan: 1},
	})
	assert.Len(t, findViolations(violations, models.ViolationThesisDay), 2)
}

func TestValidatorTheoryDailyLimitAndDistribution(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "b", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 3, PeriodSpan: 1},
	})

	kinds := violationKinds(violations)
	assert.Contains(t, kinds, models.ViolationTheoryDailyLimit)
	assert.Contains(t, kinds, models.ViolationTheoryDistribution)
}

func TestValidatorMinSessionsPerDay(t *testing.T) {
	cfg := testConfig()
	cfg.MinSessionsPerDay = 2
	v := NewValidator(cfg, testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationMinSessionsPerDay)
}

func TestValidatorCompactness(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "b", CohortID: "c-1", SubjectCode: "ENG201", TeacherID: "t-2", RoomID: "r-101",
			Day: "MONDAY", Period: 5, PeriodSpan: 1},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationCompactness)
}

func TestValidatorTeacherBreaks(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "b", CohortID: "c-2", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-102",
			Day: "MONDAY", Period: 2, PeriodSpan: 1},
		{ID: "c", CohortID: "c-3", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 3, PeriodSpan: 1},
	})
	breaks := findViolations(violations, models.ViolationTeacherBreak)
	require.Len(t, breaks, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, breaks[0].SessionIDs)
}

func TestValidatorTeacherBreaksStableOrder(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	// One teacher-day with two over-long theory runs, periods 1-3 and 5-7.
	var sessions []models.Session
	for i, period := range []int{1, 2, 3, 5, 6, 7} {
		sessions = append(sessions, models.Session{
			ID: string(rune('a' + i)), CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1",
			RoomID: "r-101", Day: "MONDAY", Period: period, PeriodSpan: 1,
		})
	}

	first := findViolations(v.Validate(sessions), models.ViolationTeacherBreak)
	require.Len(t, first, 2)
	assert.Equal(t, []string{"a", "b", "c"}, first[0].SessionIDs, "the earlier run is reported first")
	assert.Equal(t, []string{"d", "e", "f"}, first[1].SessionIDs)

	second := findViolations(v.Validate(sessions), models.ViolationTeacherBreak)
	assert.Equal(t, first, second, "repeated validation must not reorder findings")
}

func TestValidatorRoomConsistency(t *testing.T) {
	v := NewValidator(testConfig(), testReference(), nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
		{ID: "b", CohortID: "c-1", SubjectCode: "ENG201", TeacherID: "t-2", RoomID: "r-102",
			Day: "MONDAY", Period: 2, PeriodSpan: 1},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationRoomConsistency)
}

func TestValidatorCrossRunConflicts(t *testing.T) {
	existing := []models.Session{
		{ID: "committed", CohortID: "c-9", SubjectCode: "BIO101", TeacherID: "t-1", RoomID: "r-101",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
	}
	v := NewValidator(testConfig(), testReference(), existing)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-102",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
	})
	crossRun := findViolations(violations, models.ViolationCrossRunConflict)
	require.Len(t, crossRun, 1)
	assert.Equal(t, []string{"a"}, crossRun[0].SessionIDs)
}

func TestValidatorRoomCapacity(t *testing.T) {
	ref := testReference()
	ref.Rooms = append(ref.Rooms, models.Room{ID: "r-tiny", Capacity: 10})
	v := NewValidator(testConfig(), ref, nil)

	violations := v.Validate([]models.Session{
		{ID: "a", CohortID: "c-1", SubjectCode: "MATH101", TeacherID: "t-1", RoomID: "r-tiny",
			Day: "MONDAY", Period: 1, PeriodSpan: 1},
	})
	assert.Contains(t, violationKinds(violations), models.ViolationRoomCapacity)
}
