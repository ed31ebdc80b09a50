// Package app wires the store, the LLM-backed generation services and
// the engine together, and drives a session over a plain terminal
// conversation: it drains the engine's event channel and turns learner
// input lines into engine calls.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abhisek/lectio/internal/engine"
	"github.com/abhisek/lectio/internal/genex"
	"github.com/abhisek/lectio/internal/store"
)

// Options carries the app's collaborators. Store is required; the
// generation services may be nil, in which case the session runs on
// authored content alone.
type Options struct {
	Store     *store.Store
	Generator *genex.Service
	Questions *genex.Questions
	Config    engine.Config
	Logger    *log.Logger

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// App runs tutoring sessions interactively.
type App struct {
	engine *engine.Engine
	store  *store.Store
	logger *log.Logger
	in     *bufio.Scanner
	out    io.Writer

	// answer timing, measured from the last shown exercise
	shownAt         time.Time
	awaitingAdvance bool
	done            bool
}

// New builds the app and its engine.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	eng := engine.New(engine.Options{
		Content:   opts.Store.Content(),
		Sessions:  opts.Store.Sessions(),
		Progress:  opts.Store.Progress(),
		Skills:    opts.Store.Skills(),
		Reviews:   opts.Store.Reviews(),
		Generator: opts.Generator,
		Questions: opts.Questions,
		Config:    opts.Config,
		Logger:    logger,
	})
	return &App{
		engine: eng,
		store:  opts.Store,
		logger: logger,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// RunSession starts a lesson for the learner and loops until the
// session finishes, the input closes, or the learner quits.
func (a *App) RunSession(ctx context.Context, learnerID, lessonID string) error {
	s, err := a.engine.Start(ctx, learnerID, lessonID)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, titleStyle.Render("Lectio — "+s.Lesson.Title))
	fmt.Fprintln(a.out, dimStyle.Render("Enter continuă · răspunsul tău verifică · /hint /ask /pause /resume /quit"))
	fmt.Fprintln(a.out)

	a.drain(s)
	for !a.done {
		fmt.Fprint(a.out, dimStyle.Render("> "))
		if !a.in.Scan() {
			break
		}
		line := strings.TrimSpace(a.in.Text())
		if line == "/quit" || line == "/q" {
			break
		}
		a.dispatch(ctx, s, line)
		// A free question's answer lands asynchronously; give it a
		// moment to arrive before prompting again.
		if strings.HasPrefix(line, "/ask ") {
			time.Sleep(200 * time.Millisecond)
		}
		a.drain(s)
	}
	return a.in.Err()
}

func (a *App) dispatch(ctx context.Context, s *engine.Session, line string) {
	switch {
	case line == "":
		if a.awaitingAdvance {
			a.awaitingAdvance = false
			a.engine.AdvanceAfterResult(ctx, s)
			return
		}
		a.engine.NextChunk(ctx, s)

	case line == "/hint" || line == "/h":
		a.engine.RequestHint(s)

	case line == "/pause":
		a.engine.Pause(s)

	case line == "/resume":
		a.engine.Resume(ctx, s)

	case strings.HasPrefix(line, "/ask "):
		a.engine.AskFreeQuestion(ctx, s, strings.TrimSpace(strings.TrimPrefix(line, "/ask ")))

	case strings.HasPrefix(line, "/"):
		fmt.Fprintln(a.out, dimStyle.Render("Comenzi: /hint /ask <întrebare> /pause /resume /quit"))

	default:
		meta := engine.AnswerMeta{}
		if !a.shownAt.IsZero() {
			meta.ResponseSec = time.Since(a.shownAt).Seconds()
		}
		a.engine.SubmitAnswer(ctx, s, line, meta)
	}
}

// drain empties the session's event channel without blocking.
func (a *App) drain(s *engine.Session) {
	for {
		select {
		case ev := <-s.Events():
			a.render(ev)
		default:
			return
		}
	}
}

func (a *App) render(ev engine.Event) {
	switch ev := ev.(type) {
	case engine.AvatarMessage:
		fmt.Fprintln(a.out, avatarStyle.Render(avatarPrefix(ev.Emotion)+"  "+ev.Text))
		fmt.Fprintln(a.out)

	case engine.TheoryShown:
		a.awaitingAdvance = false
		header := fmt.Sprintf("Lecția · partea %d/%d", ev.ChunkIndex+1, ev.ChunkTotal)
		fmt.Fprintln(a.out, dimStyle.Render(header))
		fmt.Fprintln(a.out, theoryStyle.Render(ev.Text))
		fmt.Fprintln(a.out)

	case engine.ScratchpadShown:
		fmt.Fprintln(a.out, scratchpadStyle.Render(ev.Text))
		fmt.Fprintln(a.out)

	case engine.ExerciseShown:
		a.shownAt = time.Now()
		a.awaitingAdvance = false
		header := fmt.Sprintf("Exercițiul %d/%d", ev.Index, ev.Total)
		fmt.Fprintln(a.out, dimStyle.Render(header))
		fmt.Fprintln(a.out, exerciseStyle.Render(renderPrompt(ev.Exercise.Prompt, ev.Exercise.Choices)))
		fmt.Fprintln(a.out)

	case engine.QuizShown:
		a.shownAt = time.Now()
		a.awaitingAdvance = false
		fmt.Fprintln(a.out, dimStyle.Render("Întrebare rapidă"))
		fmt.Fprintln(a.out, exerciseStyle.Render(renderPrompt(ev.Quiz.Prompt, ev.Quiz.Choices)))
		fmt.Fprintln(a.out)

	case engine.HintShown:
		fmt.Fprintln(a.out, hintStyle.Render(fmt.Sprintf("Indiciu %d: %s", ev.Number, ev.Text)))

	case engine.AnswerResult:
		if ev.Result.Correct {
			fmt.Fprintln(a.out, correctStyle.Render("✓ Corect!"))
		} else {
			fmt.Fprintln(a.out, incorrectStyle.Render("✗ Mai încearcă"))
		}
		a.awaitingAdvance = true

	case engine.PhaseCompleted:
		fmt.Fprintln(a.out, dimStyle.Render(fmt.Sprintf("— %s încheiat: %.0f%% —", ev.Phase, ev.Score)))
		fmt.Fprintln(a.out)

	case engine.StreakMilestone:
		fmt.Fprintln(a.out, correctStyle.Render(fmt.Sprintf("🔥 Serie de %d răspunsuri corecte!", ev.Streak)))

	case engine.TierChanged:
		fmt.Fprintln(a.out, dimStyle.Render(fmt.Sprintf("Nivel de dificultate: %d → %d", ev.From, ev.To)))

	case engine.SessionDone:
		a.done = true
		fmt.Fprintln(a.out, summaryStyle.Render(renderSummary(ev.Summary)))

	case engine.PersistenceWarning:
		a.logger.Warn("progress not saved", "op", ev.Op, "err", ev.Err)

	case engine.StateChanged:
		a.logger.Debug("state", "from", ev.From, "to", ev.To)
	}
}

func renderPrompt(prompt string, choices []string) string {
	if len(choices) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	for i, c := range choices {
		b.WriteString(fmt.Sprintf("\n  %c) %s", 'a'+i, c))
	}
	return b.String()
}

func renderSummary(sum engine.Summary) string {
	verdict := "Mai exersăm data viitoare"
	if sum.Passed {
		verdict = "Lecție trecută!"
	}
	return fmt.Sprintf(
		"%s\nPre-test  %3.0f%%\nPractică  %3.0f%%\nPost-test %3.0f%%\n%d răspunsuri în %s",
		verdict,
		sum.PretestScore, sum.PracticeScore, sum.PosttestScore,
		sum.TotalAnswers, sum.Duration.Round(time.Second))
}
