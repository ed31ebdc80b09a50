package genex

import (
	"fmt"
	"strings"

	"github.com/abhisek/lectio/internal/content"
)

const exerciseSystemPrompt = `Ești un profesor prietenos care pregătește exerciții pentru un elev de școală primară din România. Exercițiile trebuie să fie clare, scurte și rezolvabile doar din teoria dată.`

func buildExerciseUserMessage(lesson *content.Lesson, theory string, phase content.Phase, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lecția: %s\n", lesson.Title)
	fmt.Fprintf(&b, "Materia: %s\n", lesson.Subject)
	fmt.Fprintf(&b, "Clasa: %d\n\n", lesson.Grade)
	b.WriteString("Teorie:\n")
	b.WriteString(theory)
	b.WriteString("\n\n")

	switch phase {
	case content.PhasePretest:
		fmt.Fprintf(&b, "Creează %d întrebări scurte de verificare a cunoștințelor de dinainte de lecție.\n", count)
	case content.PhasePosttest:
		fmt.Fprintf(&b, "Creează %d întrebări de test final care acoperă toată lecția.\n", count)
	default:
		fmt.Fprintf(&b, "Creează %d exerciții de practică, de la ușor la greu.\n", count)
	}

	b.WriteString(`
Reguli:
1. Fiecare exercițiu se rezolvă doar cu teoria de mai sus.
2. Răspunsul este un număr sau un cuvânt scurt. Variante alternative se separă cu " sau ".
3. Cele trei indicii sunt graduale: primul doar încurajează, al doilea arată metoda, al treilea aproape dă răspunsul.
4. Text simplu, fără simboluri speciale.`)

	return b.String()
}

const freeQuestionSystemPrompt = `Ești un profesor prietenos pentru școala primară. Răspunde foarte scurt (maxim 4-6 propoziții), clar, cu un exemplu.`

// BuildFreeQuestionPrompt assembles the context for a barge-in
// question: lesson summary plus the theory chunk on screen.
func BuildFreeQuestionPrompt(lesson *content.Lesson, chunk, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Context lecție: %s (%s, clasa %d)\n", lesson.Title, lesson.Subject, lesson.Grade)
	if lesson.Summary != "" {
		fmt.Fprintf(&b, "Rezumat: %s\n", lesson.Summary)
	}
	if chunk != "" {
		if r := []rune(chunk); len(r) > 800 {
			chunk = string(r[:800])
		}
		fmt.Fprintf(&b, "Fragment teorie: %s\n", chunk)
	}
	fmt.Fprintf(&b, "\nÎntrebare elev: %s\n", strings.TrimSpace(question))
	return b.String()
}
