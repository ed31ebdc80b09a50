package mastery

import (
	"context"
	"time"

	"github.com/abhisek/lectio/internal/store"
)

// tier4MinLevel is the level every tagged skill must hold before the
// hardest exercises unlock.
const tier4MinLevel = 2

// Tracker manages mastery state for all of one learner's skills.
// It is not safe for concurrent use; the session serializes access.
type Tracker struct {
	learnerID string
	skills    map[string]*SkillState
	repo      store.SkillRepo
}

// NewTracker creates a tracker and loads the learner's skill state
// from the repo. A nil repo gives an in-memory tracker.
func NewTracker(ctx context.Context, learnerID string, repo store.SkillRepo) (*Tracker, error) {
	t := &Tracker{
		learnerID: learnerID,
		skills:    make(map[string]*SkillState),
		repo:      repo,
	}
	if repo == nil {
		return t, nil
	}
	rows, err := repo.ListSkills(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		t.skills[r.SkillCode] = &SkillState{
			SkillCode:      r.SkillCode,
			Mastery:        r.Mastery,
			Attempts:       r.Attempts,
			Correct:        r.Correct,
			Level:          r.Level,
			Streak:         r.Streak,
			AvgResponseSec: r.AvgResponseSec,
			LastPracticed:  r.LastPracticed,
		}
	}
	return t, nil
}

// RecordAttempt applies one answer to every tagged skill and persists
// the updated states. The returned error only concerns persistence;
// in-memory state is always updated.
func (t *Tracker) RecordAttempt(ctx context.Context, skillCodes []string, correct bool, weight, responseSec float64, now time.Time) ([]LevelChange, error) {
	var changes []LevelChange
	var firstErr error
	for _, code := range skillCodes {
		if code == "" {
			continue
		}
		st := t.skills[code]
		if st == nil {
			st = &SkillState{SkillCode: code}
			t.skills[code] = st
		}
		if ch := st.record(correct, weight, responseSec, now); ch != nil {
			changes = append(changes, *ch)
		}
		if t.repo != nil {
			err := t.repo.SaveSkill(ctx, t.learnerID, store.SkillRow{
				SkillCode:      st.SkillCode,
				Mastery:        st.Mastery,
				Attempts:       st.Attempts,
				Correct:        st.Correct,
				Level:          st.Level,
				Streak:         st.Streak,
				AvgResponseSec: st.AvgResponseSec,
				LastPracticed:  st.LastPracticed,
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return changes, firstErr
}

// State returns the tracked state for a skill, or nil if never seen.
func (t *Tracker) State(skillCode string) *SkillState {
	return t.skills[skillCode]
}

// Level returns the ladder level for a skill, 0 if never seen.
func (t *Tracker) Level(skillCode string) int {
	if st := t.skills[skillCode]; st != nil {
		return st.Level
	}
	return 0
}

// AvgMastery averages mastery over the tagged skills. A skill with no
// history counts at defaultMastery, so one unseen skill drags an
// otherwise mastered exercise back toward the middle instead of
// vanishing from the average.
func (t *Tracker) AvgMastery(skillCodes []string, defaultMastery float64) float64 {
	if len(skillCodes) == 0 {
		return defaultMastery
	}
	var sum float64
	for _, code := range skillCodes {
		if st := t.skills[code]; st != nil {
			sum += st.Mastery
		} else {
			sum += defaultMastery
		}
	}
	return sum / float64(len(skillCodes))
}

// AvgLevel averages the ladder level over the tagged skills.
// Untracked skills count as level 0.
func (t *Tracker) AvgLevel(skillCodes []string) float64 {
	if len(skillCodes) == 0 {
		return 0
	}
	var sum int
	for _, code := range skillCodes {
		sum += t.Level(code)
	}
	return float64(sum) / float64(len(skillCodes))
}

// CanAccessTier4 reports whether the hardest tier is unlocked for an
// exercise tagged with these skills: every tagged skill must be
// tracked and at level 2 or above.
func (t *Tracker) CanAccessTier4(skillCodes []string) bool {
	if len(skillCodes) == 0 {
		return false
	}
	for _, code := range skillCodes {
		st := t.skills[code]
		if st == nil || st.Level < tier4MinLevel {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of all tracked skill states, for reporting.
func (t *Tracker) Snapshot() []SkillState {
	out := make([]SkillState, 0, len(t.skills))
	for _, st := range t.skills {
		out = append(out, *st)
	}
	return out
}
