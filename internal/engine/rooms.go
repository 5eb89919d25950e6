package engine

import (
	"sort"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// roomPolicy picks rooms for session requirements. It remembers lab choices
// per (cohort, subject) so practical retries land in the same lab, and the
// first room a cohort uses on a day so later theory sessions prefer it.
type roomPolicy struct {
	ledger        *Ledger
	rooms         []models.Room
	homeBuildings map[int]string    // seniority rank -> designated building
	labForSubject map[string]string // cohortID|subjectCode -> roomID
	roomForDay    map[string]string // cohortID|day -> roomID
}

func newRoomPolicy(rooms []models.Room, homeBuildings map[int]string, ledger *Ledger) *roomPolicy {
	ordered := make([]models.Room, len(rooms))
	copy(ordered, rooms)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &roomPolicy{
		ledger:        ledger,
		rooms:         ordered,
		homeBuildings: homeBuildings,
		labForSubject: make(map[string]string),
		roomForDay:    make(map[string]string),
	}
}

// pickRoom chooses a room for the requirement at the given slot, or reports
// that no room is available. The caller treats a miss as a placement failure
// for that slot and retries elsewhere.
func (p *roomPolicy) pickRoom(req models.SessionRequirement, cohort models.Cohort, day string, period, span int) (models.Room, bool) {
	if req.Kind == models.RequirementPracticalBlock {
		return p.pickLab(req, cohort, day, period, span)
	}
	return p.pickTheoryRoom(cohort, day, period, span)
}

func (p *roomPolicy) pickLab(req models.SessionRequirement, cohort models.Cohort, day string, period, span int) (models.Room, bool) {
	key := req.CohortID + "|" + req.SubjectCode

	// Same-lab consistency: reuse the lab chosen by an earlier block attempt.
	if labID, ok := p.labForSubject[key]; ok {
		if lab, found := p.roomByID(labID); found && p.usable(lab, cohort, day, period, span) {
			return lab, true
		}
	}

	var best models.Room
	bestLoad := -1
	for _, room := range p.rooms {
		if !room.IsLab || !p.usable(room, cohort, day, period, span) {
			continue
		}
		load := p.ledger.RoomLoad(room.ID)
		if bestLoad < 0 || load < bestLoad {
			best = room
			bestLoad = load
		}
	}
	if bestLoad < 0 {
		return models.Room{}, false
	}
	p.labForSubject[key] = best.ID
	return best, true
}

func (p *roomPolicy) pickTheoryRoom(cohort models.Cohort, day string, period, span int) (models.Room, bool) {
	dayKey := cohort.ID + "|" + day

	// Room-consistency-per-day: once a cohort has a room on a day, keep it.
	if roomID, ok := p.roomForDay[dayKey]; ok {
		if room, found := p.roomByID(roomID); found && p.usable(room, cohort, day, period, span) {
			return room, true
		}
	}

	for _, pool := range p.theoryPools(cohort) {
		var best models.Room
		bestLoad := -1
		for _, room := range pool {
			if !p.usable(room, cohort, day, period, span) {
				continue
			}
			load := p.ledger.RoomLoad(room.ID)
			if bestLoad < 0 || load < bestLoad {
				best = room
				bestLoad = load
			}
		}
		if bestLoad >= 0 {
			p.roomForDay[dayKey] = best.ID
			return best, true
		}
	}
	return models.Room{}, false
}

// theoryPools orders rooms into preference tiers by cohort seniority. The
// most senior cohorts take labs first, freeing regular rooms for the larger
// junior population; everyone else gets regular rooms and falls back to labs
// only when none are free. When a seniority rank has a designated building,
// rooms inside it come ahead of the rest within each tier.
func (p *roomPolicy) theoryPools(cohort models.Cohort) [][]models.Room {
	var labs, regular []models.Room
	for _, room := range p.rooms {
		if room.IsLab {
			labs = append(labs, room)
		} else {
			regular = append(regular, room)
		}
	}
	tiers := [][]models.Room{regular, labs}
	if cohort.Seniority == 1 {
		tiers = [][]models.Room{labs, regular}
	}

	home := p.homeBuildings[cohort.Seniority]
	if home == "" {
		return tiers
	}
	pools := make([][]models.Room, 0, 2*len(tiers))
	for _, tier := range tiers {
		var in, out []models.Room
		for _, room := range tier {
			if room.Building == home {
				in = append(in, room)
			} else {
				out = append(out, room)
			}
		}
		pools = append(pools, in, out)
	}
	return pools
}

func (p *roomPolicy) usable(room models.Room, cohort models.Cohort, day string, period, span int) bool {
	if room.Capacity < cohort.Size {
		return false
	}
	for offset := 0; offset < span; offset++ {
		if !p.ledger.RoomFree(room.ID, day, period+offset) {
			return false
		}
	}
	return true
}

func (p *roomPolicy) roomByID(id string) (models.Room, bool) {
	for _, room := range p.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return models.Room{}, false
}
