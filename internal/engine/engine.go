// Package engine drives one-on-one tutoring sessions: a lesson state
// machine that sequences warmup review, pretest, chunked theory,
// guided practice and a posttest, adapting difficulty and content
// order to the learner as it goes.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/difficulty"
	"github.com/abhisek/lectio/internal/genex"
	"github.com/abhisek/lectio/internal/mastery"
	"github.com/abhisek/lectio/internal/misconception"
	"github.com/abhisek/lectio/internal/selection"
	"github.com/abhisek/lectio/internal/spacedrep"
	"github.com/abhisek/lectio/internal/store"
)

// Options wires the engine's collaborators. Content is required;
// everything else may be nil and degrades to an in-memory or
// rule-based path.
type Options struct {
	Content   store.ContentRepo
	Sessions  store.SessionRepo
	Progress  store.ProgressRepo
	Skills    store.SkillRepo
	Reviews   store.SRSRepo
	Generator *genex.Service
	Questions *genex.Questions
	Config    Config
	Logger    *log.Logger
}

// Engine owns no session state; every operation takes the *Session it
// should act on. One engine serves any number of consecutive sessions.
type Engine struct {
	content   store.ContentRepo
	sessions  store.SessionRepo
	progress  store.ProgressRepo
	skills    store.SkillRepo
	reviews   store.SRSRepo
	generator *genex.Service
	questions *genex.Questions
	rules     []misconception.Rule
	cfg       Config
	logger    *log.Logger

	now func() time.Time
}

// New creates an engine. Unset Config fields take their defaults, so
// a caller can override a single knob without restating the rest.
func New(opts Options) *Engine {
	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		content:   opts.Content,
		sessions:  opts.Sessions,
		progress:  opts.Progress,
		skills:    opts.Skills,
		reviews:   opts.Reviews,
		generator: opts.Generator,
		questions: opts.Questions,
		rules:     misconception.DefaultRules(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start opens a new session for a learner on a lesson: loads the
// phase exercise sets, splits the theory into chunks, and enters the
// first non-empty phase. A missing lesson aborts the start.
func (e *Engine) Start(ctx context.Context, learnerID, lessonID string) (*Session, error) {
	lesson, err := e.content.GetLesson(ctx, lessonID)
	if err != nil {
		e.logger.Error("lesson not found", "lesson", lessonID, "err", err)
		return nil, fmt.Errorf("start lesson %s: %w", lessonID, err)
	}

	now := e.now()
	s := &Session{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Lesson:    lesson,
		State:     StateIdle,
		startedAt: now,
		Tier:      difficulty.NewAdjuster(difficulty.DefaultTier),
		events:    make(chan Event, e.cfg.EventBuffer),
	}

	s.Mastery, err = mastery.NewTracker(ctx, learnerID, e.skills)
	if err != nil {
		e.logger.Warn("loading skill state failed, starting fresh", "err", err)
		s.Mastery, _ = mastery.NewTracker(ctx, learnerID, nil)
	}
	s.SRS, err = spacedrep.NewScheduler(ctx, learnerID, e.reviews)
	if err != nil {
		e.logger.Warn("loading review state failed, starting fresh", "err", err)
		s.SRS, _ = spacedrep.NewScheduler(ctx, learnerID, nil)
	}

	s.pretestExercises = e.loadPhase(ctx, lessonID, content.PhasePretest, e.cfg.PretestCount)
	s.posttestExercises = e.loadPhase(ctx, lessonID, content.PhasePosttest, e.cfg.PosttestCount)
	s.practiceExercises = e.loadPractice(ctx, s, now)

	s.theoryChunks = content.SplitTheory(lesson.Theory)
	s.quizzes = e.loadQuizzes(ctx, lessonID)
	s.warmupExercises = e.loadWarmup(ctx, s, now)

	if e.sessions != nil {
		err := e.sessions.CreateSession(ctx, store.SessionRow{
			ID:        s.ID,
			LearnerID: learnerID,
			LessonID:  lessonID,
			State:     "active",
			StartedAt: now,
		})
		if err != nil {
			e.warnPersistence(s, "create session", err)
		}
	}

	switch {
	case len(s.warmupExercises) > 0:
		e.enterWarmup(ctx, s)
	case len(s.pretestExercises) > 0:
		e.enterPretest(ctx, s)
	default:
		e.startIntro(ctx, s)
	}
	return s, nil
}

func (e *Engine) loadPhase(ctx context.Context, lessonID string, phase content.Phase, count int) []content.Exercise {
	exs, err := e.content.Exercises(ctx, lessonID, phase)
	if err != nil {
		e.logger.Warn("loading exercises failed", "lesson", lessonID, "phase", phase, "err", err)
		return nil
	}
	if len(exs) > count {
		exs = exs[:count]
	}
	return exs
}

// loadPractice picks the practice set. First visits keep the authored
// order; repeat visits get an adaptive, weakness-focused mix, with
// due-for-review items from earlier sessions prepended.
func (e *Engine) loadPractice(ctx context.Context, s *Session, now time.Time) []content.Exercise {
	pool, err := e.content.Exercises(ctx, s.Lesson.ID, content.PhasePractice)
	if err != nil {
		e.logger.Warn("loading practice pool failed", "lesson", s.Lesson.ID, "err", err)
		return nil
	}

	chosen := pool
	if len(chosen) > e.cfg.PracticeCount {
		chosen = chosen[:e.cfg.PracticeCount]
	}

	if e.priorAttempts(ctx, s) > 0 {
		sel := &selection.Selector{Mastery: s.Mastery, SRS: s.SRS}
		if adaptive := sel.Select(pool, e.cfg.PracticeCount, now); len(adaptive) > 0 {
			chosen = adaptive
			e.logger.Debug("adaptive practice selection", "lesson", s.Lesson.ID, "count", len(adaptive))
		}
	}

	// Error bank: missed-and-due exercises from this lesson come back
	// at the front unless the selector already included them.
	seen := make(map[string]bool, len(chosen))
	for _, ex := range chosen {
		seen[ex.ID] = true
	}
	var extras []content.Exercise
	for _, ex := range s.SRS.Due(now, pool) {
		if !seen[ex.ID] {
			extras = append(extras, ex)
		}
	}
	if len(extras) > 0 {
		chosen = append(extras, chosen...)
	}
	return chosen
}

func (e *Engine) priorAttempts(ctx context.Context, s *Session) int {
	if e.progress == nil {
		return 0
	}
	row, err := e.progress.GetProgress(ctx, s.LearnerID, s.Lesson.ID)
	if err != nil || row == nil {
		return 0
	}
	return row.Attempts
}

// loadWarmup resolves the learner's globally due reviews to exercises,
// capped for a short opening game.
func (e *Engine) loadWarmup(ctx context.Context, s *Session, now time.Time) []content.Exercise {
	ids := s.SRS.DueIDs(now, spacedrep.WarmupLimit*2)
	if len(ids) == 0 {
		return nil
	}
	exs, err := e.content.ExercisesByID(ctx, ids)
	if err != nil {
		e.logger.Warn("loading warmup exercises failed", "err", err)
		return nil
	}
	due := s.SRS.Due(now, exs)
	if len(due) > spacedrep.WarmupLimit {
		due = due[:spacedrep.WarmupLimit]
	}
	return due
}

func (e *Engine) loadQuizzes(ctx context.Context, lessonID string) map[int]content.MicroQuiz {
	quizzes, err := e.content.MicroQuizzes(ctx, lessonID)
	if err != nil {
		e.logger.Warn("loading micro quizzes failed", "lesson", lessonID, "err", err)
		return nil
	}
	if len(quizzes) == 0 {
		return nil
	}
	byChunk := make(map[int]content.MicroQuiz, len(quizzes))
	for _, q := range quizzes {
		if _, taken := byChunk[q.ChunkIndex]; !taken {
			byChunk[q.ChunkIndex] = q
		}
	}
	return byChunk
}

// Pause freezes the session, remembering the interrupted state.
// In-flight background generation keeps running.
func (e *Engine) Pause(s *Session) {
	if s == nil || s.State == StatePaused || s.State.terminal() || s.State == StateIdle {
		return
	}
	s.prevState = s.State
	e.transition(s, StatePaused)
	s.emit(AvatarMessage{Text: msgPause, Emotion: EmotionNeutral})
}

// Resume restores the interrupted state and re-renders its context.
func (e *Engine) Resume(ctx context.Context, s *Session) {
	if s == nil || s.State != StatePaused {
		return
	}
	prev := s.prevState
	if prev == StateIdle {
		prev = StatePractice
	}
	e.transition(s, prev)
	s.emit(AvatarMessage{Text: msgResume, Emotion: EmotionHappy})
	switch s.State {
	case StateLessonChunk, StateMicroQuiz:
		e.showChunk(ctx, s)
	default:
		e.showExercise(ctx, s)
	}
}

// NextChunk advances the theory, or begins practice when the chunks
// are exhausted. Driven by the host's "got it, continue" affordance.
func (e *Engine) NextChunk(ctx context.Context, s *Session) {
	if s == nil {
		return
	}
	if s.State != StateLessonChunk && s.State != StateLessonIntro {
		return
	}
	s.chunkIdx++
	e.transition(s, StateLessonChunk)
	e.showChunk(ctx, s)
}

// SetTheoryChunks late-binds richer theory content, typically from a
// real textbook, replacing the lesson's own split. It also kicks off
// background exercise generation for phases still running on filler.
func (e *Engine) SetTheoryChunks(ctx context.Context, s *Session, chunks []string) {
	if s == nil {
		return
	}
	var clean []string
	for _, c := range chunks {
		if len([]rune(c)) > 10 {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return
	}
	s.theoryChunks = clean
	s.chunkIdx = 0
	e.logger.Info("theory bound", "lesson", s.Lesson.Title, "chunks", len(clean))

	if e.generator != nil {
		e.generator.EnsureExercises(ctx, s.Lesson, clean, []genex.PhasePlan{
			{Phase: content.PhasePractice, Count: e.cfg.PracticeCount},
			{Phase: content.PhasePosttest, Count: e.cfg.PosttestCount},
			{Phase: content.PhasePretest, Count: e.cfg.PretestCount},
		})
	}
}

// AskFreeQuestion answers a free-form learner question off the lesson
// flow. The reply (or a deflection) arrives later as an AvatarMessage;
// nothing blocks.
func (e *Engine) AskFreeQuestion(ctx context.Context, s *Session, question string) {
	if s == nil || e.questions == nil {
		return
	}
	chunk := ""
	if len(s.theoryChunks) > 0 && s.chunkIdx >= 0 && s.chunkIdx < len(s.theoryChunks) {
		chunk = s.theoryChunks[s.chunkIdx]
	}
	cite := citation(s.Lesson.Title, s.chunkIdx)
	prompt := genex.BuildFreeQuestionPrompt(s.Lesson, chunk, question)
	e.questions.Ask(ctx, prompt, func(answer string) {
		s.emit(AvatarMessage{Text: answer + "\n\n" + cite, Emotion: EmotionTalking})
	})
}

// transition moves the state machine along a legal edge and announces
// it. Illegal edges are refused loudly; they indicate an engine bug.
func (e *Engine) transition(s *Session, to State) {
	if !validTransition(s.State, to) {
		e.logger.Error("illegal state transition", "from", s.State, "to", to)
		return
	}
	from := s.State
	s.State = to
	s.emit(StateChanged{From: from, To: to})
}

func (e *Engine) enterWarmup(ctx context.Context, s *Session) {
	e.transition(s, StateWarmup)
	s.exerciseIdx = 0
	s.hintsUsed = 0
	s.emit(AvatarMessage{Text: warmupMessage(len(s.warmupExercises)), Emotion: EmotionTalking})
	e.showExercise(ctx, s)
}

func (e *Engine) enterPretest(ctx context.Context, s *Session) {
	e.adoptGenerated(s, content.PhasePretest, &s.pretestExercises, e.cfg.PretestCount)
	e.transition(s, StatePretest)
	s.exerciseIdx = 0
	s.hintsUsed = 0
	s.emit(AvatarMessage{Text: msgPretest, Emotion: EmotionTalking})
	e.showExercise(ctx, s)
}

func (e *Engine) startIntro(ctx context.Context, s *Session) {
	e.transition(s, StateLessonIntro)
	s.emit(AvatarMessage{Text: introMessage(s.Lesson.Title), Emotion: EmotionHappy})
	s.chunkIdx = 0
	e.transition(s, StateLessonChunk)
	e.showChunk(ctx, s)
}

func (e *Engine) startPractice(ctx context.Context, s *Session) {
	if s.reteaching {
		// Returning from a reteach detour: pick up the same exercise,
		// not a fresh phase.
		s.reteaching = false
		e.transition(s, StatePractice)
		e.showExercise(ctx, s)
		return
	}
	e.adoptGenerated(s, content.PhasePractice, &s.practiceExercises, e.cfg.PracticeCount)
	e.transition(s, StatePractice)
	s.exerciseIdx = 0
	s.hintsUsed = 0
	s.emit(AvatarMessage{Text: msgPractice, Emotion: EmotionEncouraging})
	e.showExercise(ctx, s)
}

func (e *Engine) startPosttest(ctx context.Context, s *Session) {
	e.adoptGenerated(s, content.PhasePosttest, &s.posttestExercises, e.cfg.PosttestCount)

	// Imported textbook lessons often put everything in practice. A
	// missing posttest becomes the hardest practice items instead of
	// an instant skip.
	if len(s.posttestExercises) == 0 && len(s.practiceExercises) > 0 {
		candidates := make([]content.Exercise, len(s.practiceExercises))
		copy(candidates, s.practiceExercises)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Difficulty > candidates[j].Difficulty
		})
		if len(candidates) > e.cfg.PosttestCount {
			candidates = candidates[:e.cfg.PosttestCount]
		}
		s.posttestExercises = candidates
		e.logger.Info("posttest synthesized from practice", "lesson", s.Lesson.Title, "count", len(candidates))
	}

	e.transition(s, StatePosttest)
	s.exerciseIdx = 0
	s.hintsUsed = 0
	s.emit(AvatarMessage{Text: msgPosttest, Emotion: EmotionTalking})
	e.showExercise(ctx, s)
}

// adoptGenerated swaps in a freshly generated batch when the current
// list is still filler. The whole-slice assignment is the atomic
// handoff point: the session never sees a half-replaced list.
func (e *Engine) adoptGenerated(s *Session, phase content.Phase, list *[]content.Exercise, count int) {
	if e.generator == nil {
		return
	}
	batch, ok := e.generator.Consume(s.Lesson.ID, phase)
	if !ok || len(batch) == 0 {
		return
	}
	if len(*list) > 0 && !content.AllPlaceholders(*list) {
		return
	}
	if len(batch) > count {
		batch = batch[:count]
	}
	*list = batch
	e.logger.Info("generated exercises adopted", "lesson", s.Lesson.Title, "phase", phase, "count", len(batch))
}

func (e *Engine) showExercise(ctx context.Context, s *Session) {
	ex := s.currentExercise()
	if ex == nil {
		e.completePhase(ctx, s)
		return
	}
	s.emit(ExerciseShown{Exercise: *ex, Index: s.exerciseIdx + 1, Total: len(s.currentExercises())})
}

func (e *Engine) showChunk(ctx context.Context, s *Session) {
	if len(s.theoryChunks) == 0 || s.chunkIdx >= len(s.theoryChunks) {
		e.startPractice(ctx, s)
		return
	}
	chunk := s.theoryChunks[s.chunkIdx]
	total := len(s.theoryChunks)

	if content.ClassifyChunk(chunk) == content.ChunkTask {
		first := content.FirstLine(chunk, 160)
		s.emit(AvatarMessage{Text: taskMessage(first), Emotion: EmotionTalking})
		s.emit(TheoryShown{Text: first, ChunkIndex: s.chunkIdx, ChunkTotal: total, Task: true})
		s.emit(ScratchpadShown{Text: chunk})
	} else {
		s.emit(AvatarMessage{Text: chunk, Emotion: EmotionTalking})
		s.emit(TheoryShown{Text: chunk, ChunkIndex: s.chunkIdx, ChunkTotal: total})
	}

	if quiz, ok := s.quizzes[s.chunkIdx]; ok {
		s.activeQuiz = &quiz
		if s.State != StateMicroQuiz {
			e.transition(s, StateMicroQuiz)
		}
		s.emit(QuizShown{Quiz: quiz, ChunkIndex: s.chunkIdx, ChunkTotal: total})
		return
	}
	s.activeQuiz = nil
	// Stay in LESSON_CHUNK; the host calls NextChunk when the learner
	// confirms they understood.
}
