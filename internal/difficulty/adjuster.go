// Package difficulty keeps the per-session exercise tier and nudges it
// up or down from the learner's recent answer streaks.
package difficulty

const (
	MinTier     = 1
	MaxTier     = 4
	DefaultTier = 2

	// Automatic promotion stops at tier 3. Tier 4 is only reachable
	// through the skill-level gate, never through a hot streak.
	autoPromoteCap = 3

	promoteStreak = 3
	demoteStreak  = 2
)

// tierWeights scale how strongly an attempt at a given tier moves
// mastery.
var tierWeights = map[int]float64{
	1: 0.33,
	2: 0.67,
	3: 1.0,
	4: 1.33,
}

// Weight returns the mastery weight for a tier. Out-of-range tiers get
// the default tier's weight.
func Weight(tier int) float64 {
	if w, ok := tierWeights[tier]; ok {
		return w
	}
	return tierWeights[DefaultTier]
}

// Direction tells which way the tier moved.
type Direction int

const (
	Up Direction = iota + 1
	Down
)

// TierChange describes a tier move so the caller can surface it to the
// learner.
type TierChange struct {
	From      int
	To        int
	Direction Direction
}

// Adjuster tracks consecutive correct and wrong answers and adjusts
// the session tier. It is not safe for concurrent use; the session
// serializes access.
type Adjuster struct {
	tier    int
	correct int
	wrong   int
}

// NewAdjuster starts at the given tier, clamped to the valid range.
// Pass 0 for the default tier.
func NewAdjuster(tier int) *Adjuster {
	if tier < MinTier || tier > MaxTier {
		tier = DefaultTier
	}
	return &Adjuster{tier: tier}
}

// Tier returns the current session tier.
func (a *Adjuster) Tier() int { return a.tier }

// Weight returns the mastery weight of the current tier.
func (a *Adjuster) Weight() float64 { return Weight(a.tier) }

// Record feeds one answer result into the adjuster. It returns a
// TierChange when the streak moved the tier, nil otherwise.
func (a *Adjuster) Record(correct bool) *TierChange {
	if correct {
		a.correct++
		a.wrong = 0
		if a.correct >= promoteStreak {
			if a.tier < autoPromoteCap {
				return a.move(a.tier + 1)
			}
			// At the cap the streak still consumes itself.
			a.correct = 0
		}
		return nil
	}
	a.wrong++
	a.correct = 0
	if a.wrong >= demoteStreak {
		if a.tier > MinTier {
			return a.move(a.tier - 1)
		}
		a.wrong = 0
	}
	return nil
}

func (a *Adjuster) move(to int) *TierChange {
	ch := &TierChange{From: a.tier, To: to, Direction: Up}
	if to < a.tier {
		ch.Direction = Down
	}
	a.tier = to
	a.correct = 0
	a.wrong = 0
	return ch
}
