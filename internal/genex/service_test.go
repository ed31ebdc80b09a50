package genex

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/llm"
	"github.com/abhisek/lectio/internal/store"
)

func validBatchJSON() json.RawMessage {
	return json.RawMessage(`{
		"exercises": [
			{
				"prompt": "Cât face 27 + 15?",
				"answer": "42",
				"choices": [],
				"hint1": "Ia-o pas cu pas.",
				"hint2": "Începe cu unitățile: 7 + 5.",
				"hint3": "7 + 5 = 12, scrii 2 și ții 1 minte.",
				"explanation": "7 + 5 = 12, 2 + 1 + 1 = 4, deci 42.",
				"difficulty": 2,
				"skill_codes": ["ADD2"]
			},
			{
				"prompt": "Alege răspunsul corect la întrebarea din manual.",
				"answer": "b",
				"choices": [],
				"hint1": "", "hint2": "", "hint3": "",
				"explanation": "",
				"difficulty": 1,
				"skill_codes": []
			}
		]
	}`)
}

type captureRepo struct {
	store.ContentRepo
	saved []content.Exercise
}

func (c *captureRepo) Exercises(_ context.Context, _ string, _ content.Phase) ([]content.Exercise, error) {
	return nil, nil
}

func (c *captureRepo) SaveExercises(_ context.Context, exs []content.Exercise) error {
	c.saved = append(c.saved, exs...)
	return nil
}

func testLesson() *content.Lesson {
	return &content.Lesson{
		ID:      "l1",
		Title:   "Adunarea cu trecere peste ordin",
		Subject: "Matematică",
		Grade:   2,
	}
}

func waitConsume(t *testing.T, svc *Service, lessonID string, phase content.Phase) []content.Exercise {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if exs, ok := svc.Consume(lessonID, phase); ok {
			return exs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no generated batch arrived")
	return nil
}

func TestEnsureExercises_GeneratesAndFiltersCorrupt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatchJSON()})
	repo := &captureRepo{}
	svc := NewService(mock, repo, DefaultConfig(), nil)

	svc.EnsureExercises(context.Background(), testLesson(),
		[]string{"Adunăm întâi unitățile, apoi zecile."},
		[]PhasePlan{{Phase: content.PhasePractice, Count: 8}})

	exs := waitConsume(t, svc, "l1", content.PhasePractice)
	if len(exs) != 1 {
		t.Fatalf("exercises = %d, want 1 (letter-code answer filtered)", len(exs))
	}
	ex := exs[0]
	if ex.ID == "" || ex.LessonID != "l1" || ex.Phase != content.PhasePractice {
		t.Errorf("exercise = %+v", ex)
	}
	if len(ex.Hints) != 3 {
		t.Errorf("hints = %v", ex.Hints)
	}
	if len(repo.saved) != 1 {
		t.Errorf("store received %d exercises, want 1", len(repo.saved))
	}

	// The slot is consumed exactly once.
	if _, ok := svc.Consume("l1", content.PhasePractice); ok {
		t.Error("batch consumed twice")
	}
}

func TestEnsureExercises_ShortCircuitsOnRealContent(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatchJSON()})
	repo := &existingRepo{n: 5}
	svc := NewService(mock, repo, DefaultConfig(), nil)

	svc.EnsureExercises(context.Background(), testLesson(),
		[]string{"Teorie suficient de lungă pentru generare."},
		[]PhasePlan{{Phase: content.PhasePractice, Count: 8}})

	time.Sleep(200 * time.Millisecond)
	if len(mock.Calls) != 0 {
		t.Errorf("provider called %d times despite existing content", len(mock.Calls))
	}
	if _, ok := svc.Consume("l1", content.PhasePractice); ok {
		t.Error("unexpected pending batch")
	}
}

type existingRepo struct {
	store.ContentRepo
	n int
}

func (r *existingRepo) Exercises(_ context.Context, lessonID string, phase content.Phase) ([]content.Exercise, error) {
	out := make([]content.Exercise, r.n)
	for i := range out {
		out[i] = content.Exercise{ID: "x", LessonID: lessonID, Phase: phase,
			Prompt: "Un exercițiu real importat din manual.", Answer: "42"}
	}
	return out, nil
}

func (r *existingRepo) SaveExercises(_ context.Context, _ []content.Exercise) error { return nil }

func TestEnsureExercises_FallsBackWithoutProvider(t *testing.T) {
	repo := &captureRepo{}
	svc := NewService(nil, repo, DefaultConfig(), nil)

	svc.EnsureExercises(context.Background(), testLesson(),
		[]string{"Adunăm întâi unitățile, apoi zecile."},
		[]PhasePlan{{Phase: content.PhasePractice, Count: 4}})

	exs := waitConsume(t, svc, "l1", content.PhasePractice)
	if len(exs) != 4 {
		t.Fatalf("fallback exercises = %d, want 4", len(exs))
	}
	for _, ex := range exs {
		if !strings.HasPrefix(ex.Prompt, "Cât face") {
			t.Errorf("unexpected fallback prompt %q", ex.Prompt)
		}
		if content.CorruptAnswer(ex.Answer) {
			t.Errorf("fallback answer %q is corrupt", ex.Answer)
		}
	}
}

func TestFallbackExercises_NonMathGetsNothing(t *testing.T) {
	lesson := &content.Lesson{ID: "l2", Title: "Substantivul", Subject: "Română", Grade: 2}
	if exs := FallbackExercises(lesson, content.PhasePractice, 5); exs != nil {
		t.Errorf("non-math fallback = %v, want none", exs)
	}
}

func TestFallbackExercises_AnswersCheckOut(t *testing.T) {
	exs := FallbackExercises(testLesson(), content.PhasePractice, 8)
	if len(exs) != 8 {
		t.Fatalf("exercises = %d", len(exs))
	}
	for _, ex := range exs {
		if !content.CheckAnswer(ex.Answer, &ex) {
			t.Errorf("answer %q does not satisfy its own exercise %q", ex.Answer, ex.Prompt)
		}
	}
}
