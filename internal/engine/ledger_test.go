package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func TestLedgerReserveIsAllOrNothing(t *testing.T) {
	ledger := NewLedger(nil)

	block := models.Session{
		ID: "block", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-lab",
		Day: "MONDAY", Period: 1, PeriodSpan: 3,
	}
	require.NoError(t, ledger.Reserve(block))

	// Overlaps only the third spanned period, but nothing may be written.
	clash := models.Session{
		ID: "clash", CohortID: "c-2", TeacherID: "t-2", RoomID: "r-lab",
		Day: "MONDAY", Period: 3, PeriodSpan: 2,
	}
	require.ErrorIs(t, ledger.Reserve(clash), errSlotTaken)

	assert.True(t, ledger.RoomFree("r-lab", "MONDAY", 4), "failed reserve must not claim period 4")
	assert.True(t, ledger.TeacherFree("t-2", "MONDAY", 3))
}

func TestLedgerCohortCannotOverlapItself(t *testing.T) {
	ledger := NewLedger(nil)

	require.NoError(t, ledger.Reserve(models.Session{
		ID: "a", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-101",
		Day: "TUESDAY", Period: 2, PeriodSpan: 1,
	}))

	// Different teacher and room, same cohort slot.
	err := ledger.Reserve(models.Session{
		ID: "b", CohortID: "c-1", TeacherID: "t-2", RoomID: "r-102",
		Day: "TUESDAY", Period: 2, PeriodSpan: 1,
	})
	assert.ErrorIs(t, err, errSlotTaken)
}

func TestLedgerReleaseIgnoresForeignOwner(t *testing.T) {
	ledger := NewLedger(nil)

	owned := models.Session{
		ID: "owner", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-101",
		Day: "MONDAY", Period: 1, PeriodSpan: 1,
	}
	require.NoError(t, ledger.Reserve(owned))

	impostor := owned
	impostor.ID = "impostor"
	ledger.Release(impostor)

	assert.False(t, ledger.TeacherFree("t-1", "MONDAY", 1), "release by a non-owner must not free the slot")

	ledger.Release(owned)
	assert.True(t, ledger.TeacherFree("t-1", "MONDAY", 1))
	assert.True(t, ledger.RoomFree("r-101", "MONDAY", 1))
}

func TestLedgerFreeForTreatsOwnSlotsAsFree(t *testing.T) {
	ledger := NewLedger(nil)

	s := models.Session{
		ID: "a", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-101",
		Day: "MONDAY", Period: 1, PeriodSpan: 2,
	}
	require.NoError(t, ledger.Reserve(s))

	// A repair candidate shifted by one period overlaps the session's own
	// reservation; that overlap must not veto the move.
	moved := s
	moved.Period = 2
	assert.True(t, ledger.FreeFor(moved))

	other := s
	other.ID = "b"
	other.CohortID = "c-2"
	other.TeacherID = "t-2"
	assert.False(t, ledger.FreeFor(other), "foreign-owned room slots are not free")
}

func TestLedgerSeededFromCommittedSessions(t *testing.T) {
	committed := []models.Session{{
		ID: "committed", CohortID: "c-9", TeacherID: "t-9", RoomID: "r-9",
		Day: "FRIDAY", Period: 4, PeriodSpan: 1,
	}}
	ledger := NewLedger(committed)

	assert.False(t, ledger.TeacherFree("t-9", "FRIDAY", 4))
	assert.False(t, ledger.RoomFree("r-9", "FRIDAY", 4))
	assert.True(t, ledger.TeacherFree("t-9", "FRIDAY", 5))
}

func TestLedgerRoomLoadCountsSpannedPeriods(t *testing.T) {
	ledger := NewLedger(nil)
	require.NoError(t, ledger.Reserve(models.Session{
		ID: "a", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-lab",
		Day: "MONDAY", Period: 1, PeriodSpan: 3,
	}))
	require.NoError(t, ledger.Reserve(models.Session{
		ID: "b", CohortID: "c-1", TeacherID: "t-1", RoomID: "r-lab",
		Day: "TUESDAY", Period: 1, PeriodSpan: 1,
	}))

	assert.Equal(t, 4, ledger.RoomLoad("r-lab"))
	assert.Equal(t, 0, ledger.RoomLoad("r-101"))
}
