package spacedrep

import (
	"context"
	"sort"
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/store"
)

// WarmupLimit caps how many due exercises open a session as warmup.
const WarmupLimit = 3

// Scheduler manages per-exercise review scheduling for one learner.
// It is not safe for concurrent use; the session serializes access.
type Scheduler struct {
	learnerID string
	reviews   map[string]*ReviewState
	repo      store.SRSRepo
}

// NewScheduler creates a scheduler and loads the learner's review
// state from the repo. A nil repo gives an in-memory scheduler.
func NewScheduler(ctx context.Context, learnerID string, repo store.SRSRepo) (*Scheduler, error) {
	s := &Scheduler{
		learnerID: learnerID,
		reviews:   make(map[string]*ReviewState),
		repo:      repo,
	}
	if repo == nil {
		return s, nil
	}
	rows, err := repo.ListReviews(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		s.reviews[r.ExerciseID] = &ReviewState{
			ExerciseID:   r.ExerciseID,
			WrongCount:   r.WrongCount,
			Easiness:     r.Easiness,
			Repetitions:  r.Repetitions,
			IntervalDays: r.IntervalDays,
			NextReview:   r.NextReview,
			LastReview:   r.LastReview,
		}
	}
	return s, nil
}

// Record applies one review of an exercise and persists the new
// schedule. The returned error only concerns persistence; the
// in-memory state is always updated.
func (s *Scheduler) Record(ctx context.Context, exerciseID string, quality int, now time.Time) (*ReviewState, error) {
	rs := s.reviews[exerciseID]
	if rs == nil {
		rs = NewReviewState(exerciseID)
		s.reviews[exerciseID] = rs
	}
	rs.Apply(quality, now)
	if s.repo == nil {
		return rs, nil
	}
	err := s.repo.SaveReview(ctx, s.learnerID, store.SRSRow{
		ExerciseID:   rs.ExerciseID,
		WrongCount:   rs.WrongCount,
		Easiness:     rs.Easiness,
		Repetitions:  rs.Repetitions,
		IntervalDays: rs.IntervalDays,
		NextReview:   rs.NextReview,
		LastReview:   rs.LastReview,
	})
	return rs, err
}

// Due filters the given exercises down to the ones previously missed
// and now due for a re-ask, hardest history first: more misses come
// before fewer, ties broken by easier exercises first.
func (s *Scheduler) Due(now time.Time, exercises []content.Exercise) []content.Exercise {
	var due []content.Exercise
	for _, ex := range exercises {
		rs := s.reviews[ex.ID]
		if rs == nil || rs.WrongCount == 0 {
			continue
		}
		if rs.IsDue(now) {
			due = append(due, ex)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		wi, wj := s.reviews[due[i].ID].WrongCount, s.reviews[due[j].ID].WrongCount
		if wi != wj {
			return wi > wj
		}
		return due[i].Difficulty < due[j].Difficulty
	})
	return due
}

// DueIDs returns the ids of previously missed exercises now due for a
// re-ask, most-missed first, capped at limit. Callers resolve the ids
// to exercises and reorder with Due once difficulty is known.
func (s *Scheduler) DueIDs(now time.Time, limit int) []string {
	var due []*ReviewState
	for _, rs := range s.reviews {
		if rs.WrongCount > 0 && rs.IsDue(now) {
			due = append(due, rs)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].WrongCount != due[j].WrongCount {
			return due[i].WrongCount > due[j].WrongCount
		}
		return due[i].ExerciseID < due[j].ExerciseID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]string, len(due))
	for i, rs := range due {
		ids[i] = rs.ExerciseID
	}
	return ids
}

// State returns the review state for an exercise, or nil if not tracked.
func (s *Scheduler) State(exerciseID string) *ReviewState {
	return s.reviews[exerciseID]
}
