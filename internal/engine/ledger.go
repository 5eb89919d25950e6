package engine

import (
	"errors"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// errSlotTaken signals a reservation collision. It never leaves the engine:
// callers retry with a different candidate slot.
var errSlotTaken = errors.New("slot already reserved")

type resourceKind uint8

const (
	teacherResource resourceKind = iota
	roomResource
	cohortResource
)

type occKey struct {
	kind   resourceKind
	id     string
	day    string
	period int
}

// Ledger is the single source of truth for teacher, room and cohort
// occupancy across the planning horizon. It is seeded from sessions committed by earlier runs
// and mutated only through Reserve and Release, each of which covers every
// period a session spans atomically.
type Ledger struct {
	occupied map[occKey]string
}

// NewLedger builds a ledger seeded with previously committed sessions.
func NewLedger(existing []models.Session) *Ledger {
	l := &Ledger{occupied: make(map[occKey]string)}
	for _, s := range existing {
		for _, key := range sessionKeys(s) {
			l.occupied[key] = s.ID
		}
	}
	return l
}

// TeacherFree reports whether the teacher is unreserved at (day, period).
func (l *Ledger) TeacherFree(teacherID, day string, period int) bool {
	_, taken := l.occupied[occKey{teacherResource, teacherID, day, period}]
	return !taken
}

// RoomFree reports whether the room is unreserved at (day, period).
func (l *Ledger) RoomFree(roomID, day string, period int) bool {
	_, taken := l.occupied[occKey{roomResource, roomID, day, period}]
	return !taken
}

// Reserve claims every teacher and room slot the session spans. On any
// collision nothing is written and errSlotTaken is returned.
func (l *Ledger) Reserve(s models.Session) error {
	keys := sessionKeys(s)
	for _, key := range keys {
		if _, taken := l.occupied[key]; taken {
			return errSlotTaken
		}
	}
	for _, key := range keys {
		l.occupied[key] = s.ID
	}
	return nil
}

// Release frees every slot held by the session. Slots owned by a different
// session are left untouched.
func (l *Ledger) Release(s models.Session) {
	for _, key := range sessionKeys(s) {
		if owner, ok := l.occupied[key]; ok && owner == s.ID {
			delete(l.occupied, key)
		}
	}
}

// FreeFor reports whether every slot the session would occupy is either
// unreserved or already owned by the session itself. The resolver uses it to
// confirm a repair target before releasing the current reservation.
func (l *Ledger) FreeFor(s models.Session) bool {
	for _, key := range sessionKeys(s) {
		if owner, taken := l.occupied[key]; taken && owner != s.ID {
			return false
		}
	}
	return true
}

// RoomLoad counts how many periods the room currently has reserved. The room
// policy uses it as a least-utilized tie-break.
func (l *Ledger) RoomLoad(roomID string) int {
	load := 0
	for key := range l.occupied {
		if key.kind == roomResource && key.id == roomID {
			load++
		}
	}
	return load
}

func sessionKeys(s models.Session) []occKey {
	periods := s.Periods()
	keys := make([]occKey, 0, len(periods)*3)
	for _, p := range periods {
		keys = append(keys,
			occKey{teacherResource, s.TeacherID, s.Day, p},
			occKey{roomResource, s.RoomID, s.Day, p},
			occKey{cohortResource, s.CohortID, s.Day, p},
		)
	}
	return keys
}
