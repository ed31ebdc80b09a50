package genex

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/lectio/internal/content"
)

// FallbackExercises builds deterministic arithmetic exercises when no
// generative provider is available. Only mathematics lessons get a
// fallback; for other subjects the lesson keeps whatever the store has.
func FallbackExercises(lesson *content.Lesson, phase content.Phase, count int) []content.Exercise {
	if !strings.Contains(strings.ToLower(lesson.Subject), "mat") {
		return nil
	}

	limit := rangeForGrade(lesson.Grade)
	var out []content.Exercise
	for i := 0; i < count; i++ {
		// Spread operands across the grade's number range so the set
		// is varied but reproducible.
		a := (i*37 + 13) % limit
		b := (i*23 + 7) % limit
		if a < b {
			a, b = b, a
		}

		var prompt, answer, expl string
		if i%2 == 0 {
			prompt = fmt.Sprintf("Cât face %d + %d?", a, b)
			answer = fmt.Sprintf("%d", a+b)
			expl = fmt.Sprintf("%d + %d = %d", a, b, a+b)
		} else {
			prompt = fmt.Sprintf("Cât face %d - %d?", a, b)
			answer = fmt.Sprintf("%d", a-b)
			expl = fmt.Sprintf("%d - %d = %d", a, b, a-b)
		}

		out = append(out, content.Exercise{
			ID:       uuid.NewString(),
			LessonID: lesson.ID,
			Phase:    phase,
			Prompt:   prompt,
			Answer:   answer,
			Hints: []string{
				"Ia-o pas cu pas, nu te grăbi.",
				"Începe cu unitățile, apoi zecile.",
				fmt.Sprintf("Rezultatul este aproape de %d.", roundTen(a)),
			},
			Explanation: expl,
			Difficulty:  1 + i%3,
			SkillCodes:  []string{"ARITH"},
		})
	}
	return out
}

func rangeForGrade(grade int) int {
	switch {
	case grade <= 1:
		return 20
	case grade == 2:
		return 100
	default:
		return 1000
	}
}

func roundTen(n int) int {
	return (n / 10) * 10
}
