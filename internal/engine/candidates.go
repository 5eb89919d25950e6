package engine

import (
	"math/rand"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// slotCandidate is one (day, starting period) placement attempt.
type slotCandidate struct {
	Day    string
	Period int
}

// candidateSlots enumerates every slot a session of the given span could
// start at, shuffled by the seeded source so retries are bounded and
// reproducible instead of an unbounded random walk.
func candidateSlots(cfg models.PlanningConfig, span int, rng *rand.Rand) []slotCandidate {
	var candidates []slotCandidate
	for _, day := range cfg.Days {
		for period := 1; period+span-1 <= cfg.PeriodsPerDay; period++ {
			candidates = append(candidates, slotCandidate{Day: day, Period: period})
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates
}
