package spacedrep

import "time"

// ReviewState holds the spaced repetition state for a single exercise.
type ReviewState struct {
	ExerciseID   string    `json:"exercise_id"`
	WrongCount   int       `json:"wrong_count"`
	Easiness     float64   `json:"easiness"`
	Repetitions  int       `json:"repetitions"`
	IntervalDays int       `json:"interval_days"`
	NextReview   time.Time `json:"next_review"`
	LastReview   time.Time `json:"last_review"`
}

// NewReviewState returns the state for an exercise seen for the first time.
func NewReviewState(exerciseID string) *ReviewState {
	return &ReviewState{ExerciseID: exerciseID, Easiness: InitialEasiness}
}

// IsDue reports whether the exercise is at or past its review date.
func (rs *ReviewState) IsDue(now time.Time) bool {
	return !now.Before(rs.NextReview)
}

// OverdueDays returns how many days past due the exercise is.
// Returns 0 if not yet due.
func (rs *ReviewState) OverdueDays(now time.Time) float64 {
	if now.Before(rs.NextReview) {
		return 0
	}
	return now.Sub(rs.NextReview).Hours() / 24.0
}

// Apply records one review of the exercise at the given quality and
// reschedules it. A wrong answer resets the repetition count and puts
// the exercise on the short re-ask ladder; a correct one grows the
// interval per SM-2.
func (rs *ReviewState) Apply(quality int, now time.Time) {
	if rs.Easiness == 0 {
		rs.Easiness = InitialEasiness
	}
	if quality <= QualityWrong {
		rs.WrongCount++
		rs.Repetitions = 0
		rs.IntervalDays = WrongInterval(rs.WrongCount)
	} else {
		rs.Easiness = NextEasiness(rs.Easiness, quality)
		rs.Repetitions++
		rs.IntervalDays = NextInterval(rs.Repetitions, rs.IntervalDays, rs.Easiness)
	}
	rs.LastReview = now
	rs.NextReview = now.AddDate(0, 0, rs.IntervalDays)
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func (rs *ReviewState) DaysUntilReview(now time.Time) int {
	if rs.IsDue(now) {
		return 0
	}
	return int(rs.NextReview.Sub(now).Hours()/24.0) + 1
}
