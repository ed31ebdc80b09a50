// Package selection picks which exercises a learner sees next,
// balancing weak skills, a difficulty sweet spot and overdue re-asks.
package selection

import (
	"sort"
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/mastery"
	"github.com/abhisek/lectio/internal/spacedrep"
)

// poolLimit caps how many candidates get scored per pick.
const poolLimit = 50

// defaultMastery stands in for every skill with no history yet, so an
// exercise mixing one mastered and one unseen skill still scores as
// half-shaky instead of fully known. It doubles as the flat priority
// of an exercise with no skill tags at all.
const defaultMastery = 0.5

// maxTargetDifficulty caps the difficulty the picker aims for.
const maxTargetDifficulty = 3

// Selector scores and orders exercises for one learner.
type Selector struct {
	Mastery *mastery.Tracker
	SRS     *spacedrep.Scheduler
}

// Select returns up to n exercises from the pool, weakest and
// best-matched skills on top. Overdue re-asks jump the queue but keep
// their priority order among themselves. Tier-4 exercises are held
// back until the learner's tagged skills unlock them.
func (s *Selector) Select(pool []content.Exercise, n int, now time.Time) []content.Exercise {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if len(pool) > poolLimit {
		pool = pool[:poolLimit]
	}

	// Tier 4 unlocks for the pool as a whole: one shaky skill anywhere
	// in the lesson keeps every elite exercise out.
	allowTier4 := s.Mastery.CanAccessTier4(poolSkillCodes(pool))

	eligible := make([]content.Exercise, 0, len(pool))
	for _, ex := range pool {
		if ex.EffectiveTier() == 4 && !allowTier4 {
			continue
		}
		eligible = append(eligible, ex)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return s.Priority(eligible[i]) > s.Priority(eligible[j])
	})

	inDue := make(map[string]bool)
	if s.SRS != nil {
		for _, ex := range s.SRS.Due(now, eligible) {
			inDue[ex.ID] = true
		}
	}

	// Partition the scored order, so due items lead without losing
	// their ranking relative to each other.
	due := make([]content.Exercise, 0, len(inDue))
	rest := make([]content.Exercise, 0, len(eligible))
	for _, ex := range eligible {
		if inDue[ex.ID] {
			due = append(due, ex)
		} else {
			rest = append(rest, ex)
		}
	}

	out := append(due, rest...)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Priority scores one exercise: how weak the learner is on its skills
// times how close its difficulty sits to the learner's target.
func (s *Selector) Priority(ex content.Exercise) float64 {
	if len(ex.SkillCodes) == 0 {
		return 1 - defaultMastery
	}
	weakness := 1 - s.Mastery.AvgMastery(ex.SkillCodes, defaultMastery)
	return weakness * s.match(ex)
}

func poolSkillCodes(pool []content.Exercise) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, ex := range pool {
		for _, c := range ex.SkillCodes {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}
	return codes
}

func (s *Selector) match(ex content.Exercise) float64 {
	target := s.Mastery.AvgLevel(ex.SkillCodes) + 1
	if target > maxTargetDifficulty {
		target = maxTargetDifficulty
	}
	gap := float64(ex.Difficulty) - target
	if gap < 0 {
		gap = -gap
	}
	m := 1 - 0.25*gap
	if m < 0 {
		m = 0
	}
	return m
}
