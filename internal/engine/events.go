package engine

import "github.com/abhisek/lectio/internal/content"

// Event is one engine notification. The host drains the session's
// event channel and renders each variant; the set is closed.
type Event interface {
	event()
}

// StateChanged announces a state machine transition.
type StateChanged struct {
	From State
	To   State
}

// TheoryShown carries one theory chunk ready for display. Task chunks
// are instructional ("write the steps..."): only the first line is
// announced and the full chunk goes to a scratchpad.
type TheoryShown struct {
	Text       string
	ChunkIndex int
	ChunkTotal int
	Task       bool
}

// ScratchpadShown carries the full text of a task chunk for the
// learner's working area.
type ScratchpadShown struct {
	Text string
}

// ExerciseShown presents the current exercise with its position in
// the phase.
type ExerciseShown struct {
	Exercise content.Exercise
	Index    int
	Total    int
}

// QuizShown presents the micro quiz attached to a theory chunk.
type QuizShown struct {
	Quiz       content.MicroQuiz
	ChunkIndex int
	ChunkTotal int
}

// HintShown carries a graduated hint, Number counting from 1.
type HintShown struct {
	Text   string
	Number int
}

// AnswerResult reports the outcome of one submitted answer.
type AnswerResult struct {
	Result QuestionResult
}

// PhaseCompleted reports the accuracy score of a finished phase.
type PhaseCompleted struct {
	Phase string
	Score float64
}

// SessionDone carries the final summary of a finished session.
type SessionDone struct {
	Summary Summary
}

// AvatarMessage is learner-facing speech with an emotion tag for the
// avatar (happy, sad, thinking, encouraging, excited, neutral).
type AvatarMessage struct {
	Text    string
	Emotion string
}

// TierChanged reports an intra-session difficulty tier move.
type TierChanged struct {
	From int
	To   int
}

// StreakMilestone fires when the correct streak reaches 3, 5 or 10.
type StreakMilestone struct {
	Streak int
}

// PersistenceWarning signals a failed store write. The session keeps
// going; the host may surface it or just log.
type PersistenceWarning struct {
	Op  string
	Err error
}

func (StateChanged) event()       {}
func (TheoryShown) event()        {}
func (ScratchpadShown) event()    {}
func (ExerciseShown) event()      {}
func (QuizShown) event()          {}
func (HintShown) event()          {}
func (AnswerResult) event()       {}
func (PhaseCompleted) event()     {}
func (SessionDone) event()        {}
func (AvatarMessage) event()      {}
func (TierChanged) event()        {}
func (StreakMilestone) event()    {}
func (PersistenceWarning) event() {}
