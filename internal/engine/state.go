package engine

// State is the session's position in the lesson flow.
type State int

const (
	StateIdle State = iota
	StateWarmup
	StatePretest
	StateLessonIntro
	StateLessonChunk
	StateMicroQuiz
	StatePractice
	StatePosttest
	StateSummary
	StateDone
	StatePaused
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateWarmup:      "warmup",
	StatePretest:     "pretest",
	StateLessonIntro: "lesson_intro",
	StateLessonChunk: "lesson_chunk",
	StateMicroQuiz:   "micro_quiz",
	StatePractice:    "practice",
	StatePosttest:    "posttest",
	StateSummary:     "summary",
	StateDone:        "done",
	StatePaused:      "paused",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// acceptsAnswers reports whether SubmitAnswer is legal in this state.
func (s State) acceptsAnswers() bool {
	switch s {
	case StateWarmup, StatePretest, StatePractice, StatePosttest, StateMicroQuiz:
		return true
	}
	return false
}

// acceptsHints reports whether RequestHint is legal in this state.
func (s State) acceptsHints() bool {
	switch s {
	case StateWarmup, StatePretest, StatePractice, StatePosttest:
		return true
	}
	return false
}

// terminal reports whether the session can no longer move.
func (s State) terminal() bool {
	return s == StateDone
}

// validTransition enumerates the legal edges of the lesson flow. Any
// active state may pause, and PAUSED may return to any active state.
func validTransition(from, to State) bool {
	if to == StatePaused {
		return from != StatePaused && !from.terminal() && from != StateIdle
	}
	if from == StatePaused {
		return !to.terminal() && to != StateIdle
	}
	switch from {
	case StateIdle:
		return to == StateWarmup || to == StatePretest || to == StateLessonIntro || to == StateLessonChunk
	case StateWarmup:
		return to == StatePretest || to == StateLessonIntro || to == StateLessonChunk
	case StatePretest:
		return to == StateLessonIntro || to == StateLessonChunk || to == StatePractice
	case StateLessonIntro:
		return to == StateLessonChunk
	case StateLessonChunk:
		return to == StateMicroQuiz || to == StateLessonChunk || to == StatePractice
	case StateMicroQuiz:
		return to == StateLessonChunk || to == StatePractice
	case StatePractice:
		return to == StateLessonChunk || to == StatePosttest
	case StatePosttest:
		return to == StateSummary
	case StateSummary:
		return to == StateDone
	}
	return false
}
