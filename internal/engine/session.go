package engine

import (
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/difficulty"
	"github.com/abhisek/lectio/internal/mastery"
	"github.com/abhisek/lectio/internal/spacedrep"
)

// AnswerMeta carries side-channel signals collected by the input
// surface while the learner typed the answer.
type AnswerMeta struct {
	ResponseSec float64
	Edits       float64
	Attention   string
}

// QuestionResult is the immutable record of one submitted answer.
type QuestionResult struct {
	ExerciseID string
	Answer     string
	Correct    bool
	HintsUsed  int
	TimeSec    float64
	Feedback   string
	Meta       AnswerMeta
}

// Summary is the terminal report of a finished session.
type Summary struct {
	LessonID      string
	PretestScore  float64
	PracticeScore float64
	PosttestScore float64
	Passed        bool
	Duration      time.Duration
	TotalAnswers  int
	AvgAnswerSec  float64
	AvgEdits      float64
}

// Session is the mutable root of one tutoring run. It is owned by the
// caller and passed into every engine operation; the engine holds no
// session state of its own. Not safe for concurrent use.
type Session struct {
	ID        string
	LearnerID string
	Lesson    *content.Lesson

	State     State
	prevState State

	warmupExercises   []content.Exercise
	pretestExercises  []content.Exercise
	practiceExercises []content.Exercise
	posttestExercises []content.Exercise

	warmupResults   []QuestionResult
	pretestResults  []QuestionResult
	practiceResults []QuestionResult
	posttestResults []QuestionResult

	exerciseIdx int
	hintsUsed   int

	theoryChunks []string
	chunkIdx     int
	quizzes      map[int]content.MicroQuiz
	activeQuiz   *content.MicroQuiz

	startedAt       time.Time
	correctStreak   int
	wrongStreak     int
	waitingContinue bool

	// Set while a reteach detour is showing theory so that returning
	// to practice does not restart the phase.
	reteaching bool

	// Hesitation proxies: running averages over all answers.
	answersCount int
	avgAnswerSec float64
	avgEdits     float64

	// Per-session collaborators, bound to this learner.
	Mastery *mastery.Tracker
	SRS     *spacedrep.Scheduler
	Tier    *difficulty.Adjuster

	events chan Event
}

// Events is the session's typed notification channel. The host drains
// it; when the buffer fills, the oldest events are dropped rather than
// blocking the lesson flow.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) emit(ev Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// currentExercises returns the exercise list of the active phase.
func (s *Session) currentExercises() []content.Exercise {
	switch s.State {
	case StateWarmup:
		return s.warmupExercises
	case StatePretest:
		return s.pretestExercises
	case StatePractice:
		return s.practiceExercises
	case StatePosttest:
		return s.posttestExercises
	}
	return nil
}

// currentExercise returns the exercise being shown, or nil when the
// phase list is exhausted.
func (s *Session) currentExercise() *content.Exercise {
	exs := s.currentExercises()
	if s.exerciseIdx < 0 || s.exerciseIdx >= len(exs) {
		return nil
	}
	return &exs[s.exerciseIdx]
}

// appendResult records the answer in the active phase's list. Warmup
// answers feed the scheduler but never a score.
func (s *Session) appendResult(qr QuestionResult) {
	switch s.State {
	case StateWarmup:
		s.warmupResults = append(s.warmupResults, qr)
	case StatePretest:
		s.pretestResults = append(s.pretestResults, qr)
	case StatePractice:
		s.practiceResults = append(s.practiceResults, qr)
	case StatePosttest:
		s.posttestResults = append(s.posttestResults, qr)
	}
}

func phaseScore(results []QuestionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(results)) * 100
}

// PretestScore defaults to 100 when the pretest was skipped: an empty
// pretest must not read as failure.
func (s *Session) PretestScore() float64 {
	if len(s.pretestResults) == 0 {
		return 100
	}
	return phaseScore(s.pretestResults)
}

func (s *Session) PracticeScore() float64 {
	return phaseScore(s.practiceResults)
}

// PosttestScore falls back to the practice score when the posttest
// produced no answers, so a skipped final test does not show 0%.
func (s *Session) PosttestScore() float64 {
	if len(s.posttestResults) > 0 {
		return phaseScore(s.posttestResults)
	}
	if len(s.practiceResults) > 0 {
		return phaseScore(s.practiceResults)
	}
	return 0
}

// recordTiming folds one answer into the session's hesitation proxies.
func (s *Session) recordTiming(meta AnswerMeta) {
	s.answersCount++
	n := float64(s.answersCount)
	s.avgAnswerSec += (meta.ResponseSec - s.avgAnswerSec) / n
	s.avgEdits += (meta.Edits - s.avgEdits) / n
}
