// Package mastery tracks per-skill command of the material: a 0..1
// mastery score, attempt counts, response-time averages and a slow
// day-gated level ladder from 0 to 3.
package mastery

import "time"

// Mastery deltas. The very first attempt at a skill pins the score
// instead of nudging it, so one lucky answer does not read as command.
const (
	firstCorrectScore = 0.6
	firstWrongScore   = 0.2
	correctStep       = 0.15
	wrongStep         = 0.10
)

// emaAlpha weights new response times against the running average.
const emaAlpha = 0.2

// MaxLevel is the top of the level ladder.
const MaxLevel = 3

// levelGate describes what it takes to hold a level. The ladder runs
// on raw accuracy (correct/attempts), not on the smoothed mastery
// score, so a lucky weighting can never promote a 50% learner.
type levelGate struct {
	accuracy float64
	attempts int
}

var promotionGates = map[int]levelGate{
	1: {0.80, 5},
	2: {0.85, 8},
	3: {0.90, 12},
}

// Demotion fires only with real evidence: low accuracy over a body of
// attempts, not a bad afternoon.
var demotionGate = levelGate{0.50, 10}

// SkillState is the tracked state for one skill code.
type SkillState struct {
	SkillCode      string
	Mastery        float64
	Attempts       int
	Correct        int
	Level          int
	Streak         int
	AvgResponseSec float64
	LastPracticed  time.Time
}

// Accuracy is the raw correct/attempts ratio, 0 before any attempt.
func (st *SkillState) Accuracy() float64 {
	if st.Attempts == 0 {
		return 0
	}
	return float64(st.Correct) / float64(st.Attempts)
}

// LevelChange reports a promotion or demotion on the level ladder.
type LevelChange struct {
	SkillCode string
	From      int
	To        int
}

// record applies one attempt to the skill state and returns the level
// change it caused, if any. weight scales the mastery step by the
// difficulty tier the answer came from.
func (st *SkillState) record(correct bool, weight, responseSec float64, now time.Time) *LevelChange {
	first := st.Attempts == 0
	prevPracticed := st.LastPracticed
	st.Attempts++
	if correct {
		st.Correct++
		st.Streak++
	} else {
		st.Streak = 0
	}

	switch {
	case first && correct:
		st.Mastery = firstCorrectScore
	case first:
		st.Mastery = firstWrongScore
	case correct:
		st.Mastery += correctStep * weight
	default:
		st.Mastery -= wrongStep * weight
	}
	st.Mastery = clamp01(st.Mastery)

	if responseSec > 0 {
		if st.AvgResponseSec == 0 {
			st.AvgResponseSec = responseSec
		} else {
			st.AvgResponseSec = emaAlpha*responseSec + (1-emaAlpha)*st.AvgResponseSec
		}
	}

	st.LastPracticed = now
	return st.updateLevel(prevPracticed, now)
}

// updateLevel moves the skill at most one level. Promotions are only
// granted on the first practice of a calendar day, so a hot afternoon
// cannot jump the ladder.
func (st *SkillState) updateLevel(prevPracticed, now time.Time) *LevelChange {
	acc := st.Accuracy()

	if st.Level > 0 && acc < demotionGate.accuracy && st.Attempts >= demotionGate.attempts {
		ch := &LevelChange{SkillCode: st.SkillCode, From: st.Level, To: st.Level - 1}
		st.Level--
		return ch
	}

	if st.Level >= MaxLevel {
		return nil
	}
	next := st.Level + 1
	gate := promotionGates[next]
	if acc < gate.accuracy || st.Attempts < gate.attempts {
		return nil
	}
	if sameDay(prevPracticed, now) {
		return nil
	}
	ch := &LevelChange{SkillCode: st.SkillCode, From: st.Level, To: next}
	st.Level = next
	return ch
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
