package content

// Phase identifies which part of a lesson an exercise belongs to.
type Phase string

const (
	PhasePretest  Phase = "pretest"
	PhasePractice Phase = "practice"
	PhasePosttest Phase = "posttest"
)

// Lesson is an authored lesson as stored in the content store.
// The engine never mutates lessons.
type Lesson struct {
	ID      string
	Title   string
	Subject string
	Grade   int
	Summary string
	Theory  string
}

// Exercise is a single question the engine can present.
// Hints are graduated: Hints[0] is the gentlest nudge, Hints[2] nearly
// gives the answer away. Answer may contain "sau"-separated alternates
// ("32 sau 60" accepts either).
type Exercise struct {
	ID          string
	LessonID    string
	Phase       Phase
	Prompt      string
	Answer      string
	Choices     []string
	Hints       []string // up to 3
	Explanation string
	Difficulty  int      // authored rating 1-5
	Tier        int      // coarse tier 1-4; 4 is gated "boss fight" content
	SkillCodes  []string
}

// HintAt returns the n-th graduated hint (1-based), or ok=false when the
// exercise has fewer hints than requested.
func (e *Exercise) HintAt(n int) (string, bool) {
	if n < 1 || n > len(e.Hints) {
		return "", false
	}
	h := e.Hints[n-1]
	if h == "" {
		return "", false
	}
	return h, true
}

// EffectiveTier returns the coarse tier, falling back to the authored
// difficulty when no tier was set. Imported manual exercises often carry
// only a difficulty rating.
func (e *Exercise) EffectiveTier() int {
	if e.Tier >= 1 {
		return e.Tier
	}
	if e.Difficulty >= 1 && e.Difficulty <= 4 {
		return e.Difficulty
	}
	if e.Difficulty > 4 {
		return 4
	}
	return 1
}

// MicroQuiz is a single comprehension check attached to a theory chunk.
type MicroQuiz struct {
	ID         string
	LessonID   string
	ChunkIndex int
	Prompt     string
	Answer     string
	Choices    []string
}
