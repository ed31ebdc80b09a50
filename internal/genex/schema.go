package genex

import "github.com/abhisek/lectio/internal/llm"

// ExerciseBatchSchema defines the JSON schema for exercise generation
// responses: a batch of practice questions with graduated hints.
var ExerciseBatchSchema = &llm.Schema{
	Name:        "exercise-batch",
	Description: "A batch of practice exercises for a school lesson, with graduated hints",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercises": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner, in Romanian, plain text",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct answer. Alternates may be separated by ' sau '.",
						},
						"choices": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 options for multiple choice, empty for free answer",
						},
						"hint1": map[string]any{
							"type":        "string",
							"description": "Gentlest nudge, does not reveal the method",
						},
						"hint2": map[string]any{
							"type":        "string",
							"description": "Names the method or first step",
						},
						"hint3": map[string]any{
							"type":        "string",
							"description": "Nearly gives the answer away",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Short worked solution, age-appropriate",
						},
						"difficulty": map[string]any{
							"type":        "integer",
							"minimum":     1,
							"maximum":     5,
							"description": "Self-assessed difficulty from 1 (easy) to 5 (hard)",
						},
						"skill_codes": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Short skill codes this exercise trains, e.g. ADD2, READ-SENT",
						},
					},
					"required": []any{"prompt", "answer", "choices", "hint1", "hint2",
						"hint3", "explanation", "difficulty", "skill_codes"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"exercises"},
		"additionalProperties": false,
	},
}
