// Package genex fills lessons with generated exercises and answers
// free-form learner questions, both off the session's thread.
package genex

import "time"

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MinRealExercises short-circuits background generation when a
	// lesson already has this many non-placeholder practice exercises.
	MinRealExercises int

	// TheoryCharLimit caps how much theory text goes into the prompt.
	TheoryCharLimit int

	// QuestionTimeout bounds one free-question answer.
	QuestionTimeout time.Duration
}

// DefaultConfig returns sensible defaults for generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        1024,
		Temperature:      0.5,
		MinRealExercises: 3,
		TheoryCharLimit:  1000,
		QuestionTimeout:  25 * time.Second,
	}
}
