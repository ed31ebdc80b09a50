package genex

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/llm"
)

func awaitAnswer(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no answer arrived")
		return ""
	}
}

func TestQuestions_AnswersViaCallback(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`"Zecile sunt grupuri de câte 10. De exemplu, 42 are 4 zeci."`),
	})
	q := NewQuestions(mock, DefaultConfig(), nil)

	got := make(chan string, 1)
	q.Ask(context.Background(), "Ce sunt zecile?", func(ans string) { got <- ans })

	ans := awaitAnswer(t, got)
	if ans != "Zecile sunt grupuri de câte 10. De exemplu, 42 are 4 zeci." {
		t.Errorf("answer = %q", ans)
	}
}

func TestQuestions_DeflectsWithoutProvider(t *testing.T) {
	q := NewQuestions(nil, DefaultConfig(), nil)

	got := make(chan string, 1)
	q.Ask(context.Background(), "Ce sunt zecile?", func(ans string) { got <- ans })
	if ans := awaitAnswer(t, got); ans != deflectUnavailable {
		t.Errorf("answer = %q, want deflection", ans)
	}
}

func TestQuestions_DeflectsOnProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{},
	})
	q := NewQuestions(mock, DefaultConfig(), nil)

	got := make(chan string, 1)
	q.Ask(context.Background(), "Ce sunt zecile?", func(ans string) { got <- ans })
	if ans := awaitAnswer(t, got); ans != deflectUnavailable {
		t.Errorf("answer = %q, want deflection", ans)
	}
}

func TestBuildFreeQuestionPrompt(t *testing.T) {
	lesson := &content.Lesson{Title: "Numerele până la 100", Subject: "Matematică", Grade: 2,
		Summary: "Numărăm și comparăm numere."}
	p := BuildFreeQuestionPrompt(lesson, "Zecile se numără din 10 în 10.", "Ce sunt zecile?")
	for _, want := range []string{"Numerele până la 100", "clasa 2", "Zecile se numără", "Ce sunt zecile?"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}
