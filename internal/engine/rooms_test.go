package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func practicalRequirement() models.SessionRequirement {
	return models.SessionRequirement{
		CohortID:    "c-1",
		SubjectCode: "PHYS-LAB",
		Kind:        models.RequirementPracticalBlock,
	}
}

func TestRoomPolicyPracticalsOnlyUseLabs(t *testing.T) {
	ledger := NewLedger(nil)
	policy := newRoomPolicy([]models.Room{
		{ID: "r-101", Name: "Room 101", Capacity: 40},
		{ID: "r-lab", Name: "Physics Lab", Capacity: 35, IsLab: true},
	}, nil, ledger)
	cohort := models.Cohort{ID: "c-1", Size: 30}

	room, ok := policy.pickRoom(practicalRequirement(), cohort, "MONDAY", 1, 3)
	require.True(t, ok)
	assert.Equal(t, "r-lab", room.ID)
}

func TestRoomPolicyPracticalFailsWithoutLab(t *testing.T) {
	policy := newRoomPolicy([]models.Room{
		{ID: "r-101", Capacity: 40},
		{ID: "r-102", Capacity: 40},
	}, nil, NewLedger(nil))

	_, ok := policy.pickRoom(practicalRequirement(), models.Cohort{ID: "c-1", Size: 30}, "MONDAY", 1, 3)
	assert.False(t, ok)
}

func TestRoomPolicyReusesLabPerSubject(t *testing.T) {
	ledger := NewLedger(nil)
	policy := newRoomPolicy([]models.Room{
		{ID: "r-lab-a", Capacity: 35, IsLab: true},
		{ID: "r-lab-b", Capacity: 35, IsLab: true},
	}, nil, ledger)
	cohort := models.Cohort{ID: "c-1", Size: 30}

	first, ok := policy.pickRoom(practicalRequirement(), cohort, "MONDAY", 1, 3)
	require.True(t, ok)

	// Give the other lab a lighter load; the sticky choice must still win.
	require.NoError(t, ledger.Reserve(models.Session{
		ID: "filler", CohortID: "c-9", TeacherID: "t-9", RoomID: first.ID,
		Day: "MONDAY", Period: 5, PeriodSpan: 1,
	}))

	second, ok := policy.pickRoom(practicalRequirement(), cohort, "TUESDAY", 1, 3)
	require.True(t, ok)
	assert.Equal(t, first.ID, second.ID)
}

func TestRoomPolicyRespectsCapacity(t *testing.T) {
	policy := newRoomPolicy([]models.Room{
		{ID: "r-small", Capacity: 20},
		{ID: "r-big", Capacity: 45},
	}, nil, NewLedger(nil))

	room, ok := policy.pickTheoryRoom(models.Cohort{ID: "c-1", Size: 40}, "MONDAY", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "r-big", room.ID)

	_, ok = policy.pickTheoryRoom(models.Cohort{ID: "c-2", Size: 60}, "MONDAY", 2, 1)
	assert.False(t, ok, "no room can seat 60")
}

func TestRoomPolicySeniorCohortsPreferLabsForTheory(t *testing.T) {
	rooms := []models.Room{
		{ID: "r-101", Capacity: 40},
		{ID: "r-lab", Capacity: 40, IsLab: true},
	}

	senior, ok := newRoomPolicy(rooms, nil, NewLedger(nil)).
		pickTheoryRoom(models.Cohort{ID: "c-senior", Size: 30, Seniority: 1}, "MONDAY", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "r-lab", senior.ID)

	junior, ok := newRoomPolicy(rooms, nil, NewLedger(nil)).
		pickTheoryRoom(models.Cohort{ID: "c-junior", Size: 30, Seniority: 3}, "MONDAY", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "r-101", junior.ID)
}

func TestRoomPolicyPrefersDesignatedBuilding(t *testing.T) {
	rooms := []models.Room{
		{ID: "r-east", Capacity: 40, Building: "EAST"},
		{ID: "r-west", Capacity: 40, Building: "WEST"},
	}
	home := map[int]string{2: "WEST"}

	room, ok := newRoomPolicy(rooms, home, NewLedger(nil)).
		pickTheoryRoom(models.Cohort{ID: "c-1", Size: 30, Seniority: 2}, "MONDAY", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "r-west", room.ID, "the rank's designated building wins over room id order")

	// Ranks without a designated building keep the plain least-load order.
	room, ok = newRoomPolicy(rooms, home, NewLedger(nil)).
		pickTheoryRoom(models.Cohort{ID: "c-2", Size: 30, Seniority: 3}, "MONDAY", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "r-east", room.ID)
}

func TestRoomPolicyKeepsSameRoomPerDay(t *testing.T) {
	ledger := NewLedger(nil)
	policy := newRoomPolicy([]models.Room{
		{ID: "r-101", Capacity: 40},
		{ID: "r-102", Capacity: 40},
	}, nil, ledger)
	cohort := models.Cohort{ID: "c-1", Size: 30, Seniority: 2}

	first, ok := policy.pickTheoryRoom(cohort, "MONDAY", 1, 1)
	require.True(t, ok)
	require.NoError(t, ledger.Reserve(models.Session{
		ID: "a", CohortID: "c-1", TeacherID: "t-1", RoomID: first.ID,
		Day: "MONDAY", Period: 1, PeriodSpan: 1,
	}))

	second, ok := policy.pickTheoryRoom(cohort, "MONDAY", 2, 1)
	require.True(t, ok)
	assert.Equal(t, first.ID, second.ID)
}
