package store

import (
	"context"
	"time"

	"github.com/abhisek/lectio/internal/content"
)

// SkillRow is one learner's state for one skill code.
type SkillRow struct {
	SkillCode      string
	Mastery        float64
	Attempts       int
	Correct        int
	Level          int
	Streak         int
	AvgResponseSec float64
	LastPracticed  time.Time
}

// SkillRepo persists per-learner skill state.
type SkillRepo interface {
	ListSkills(ctx context.Context, learnerID string) ([]SkillRow, error)
	SaveSkill(ctx context.Context, learnerID string, row SkillRow) error
}

// SRSRow is one learner's review schedule for one exercise.
type SRSRow struct {
	ExerciseID   string
	WrongCount   int
	Easiness     float64
	Repetitions  int
	IntervalDays int
	NextReview   time.Time
	LastReview   time.Time
}

// SRSRepo persists spaced repetition schedules.
type SRSRepo interface {
	ListReviews(ctx context.Context, learnerID string) ([]SRSRow, error)
	SaveReview(ctx context.Context, learnerID string, row SRSRow) error
}

// ContentRepo reads and writes authored and generated lesson content.
type ContentRepo interface {
	ListLessons(ctx context.Context) ([]content.Lesson, error)
	GetLesson(ctx context.Context, id string) (*content.Lesson, error)
	// Exercises returns a lesson's exercises for one phase, filler
	// placeholders excluded. An empty phase returns all phases.
	Exercises(ctx context.Context, lessonID string, phase content.Phase) ([]content.Exercise, error)
	// ExercisesByID fetches exercises across lessons, preserving the
	// order of ids. Unknown ids are skipped.
	ExercisesByID(ctx context.Context, ids []string) ([]content.Exercise, error)
	MicroQuizzes(ctx context.Context, lessonID string) ([]content.MicroQuiz, error)
	SaveLesson(ctx context.Context, lesson *content.Lesson, exercises []content.Exercise, quizzes []content.MicroQuiz) error
	SaveExercises(ctx context.Context, exercises []content.Exercise) error
}

// SessionRow is the durable record of one lesson session.
type SessionRow struct {
	ID              string
	LearnerID       string
	LessonID        string
	State           string
	StartedAt       time.Time
	EndedAt         time.Time
	PreScore        int
	PostScore       int
	PracticeCorrect int
	PracticeTotal   int
}

// AnswerRow is one answer given during a session.
type AnswerRow struct {
	SessionID   string
	ExerciseID  string
	Phase       content.Phase
	Answer      string
	Correct     bool
	HintsUsed   int
	ResponseSec float64
	CreatedAt   time.Time
}

// SessionRepo logs sessions and the answers given in them.
type SessionRepo interface {
	CreateSession(ctx context.Context, row SessionRow) error
	FinishSession(ctx context.Context, row SessionRow) error
	RecordAnswer(ctx context.Context, learnerID string, row AnswerRow) error
}

// ProgressRow tracks a learner's standing on one lesson.
type ProgressRow struct {
	LessonID        string
	BestScore       int
	Attempts        int
	ConsecutiveGood int
	Completed       bool
	UpdatedAt       time.Time
}

// ProgressRepo persists per-lesson progress.
type ProgressRepo interface {
	GetProgress(ctx context.Context, learnerID, lessonID string) (*ProgressRow, error)
	ListProgress(ctx context.Context, learnerID string) ([]ProgressRow, error)
	UpsertProgress(ctx context.Context, learnerID string, row ProgressRow) error
}
