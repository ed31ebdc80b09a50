package genex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/llm"
	"github.com/abhisek/lectio/internal/store"
)

// Service generates lesson exercises in the background. Finished
// batches land in a pending slot the live session polls; the store is
// updated at the same time so future sessions start with real content.
type Service struct {
	provider llm.Provider
	repo     store.ContentRepo
	cfg      Config
	logger   *log.Logger

	mu      sync.Mutex
	pending map[string][]content.Exercise
}

// NewService creates a generation service. provider may be nil; the
// service then falls back to rule-based exercises for math lessons and
// does nothing for other subjects.
func NewService(provider llm.Provider, repo store.ContentRepo, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		provider: provider,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		pending:  make(map[string][]content.Exercise),
	}
}

// PhasePlan says how many exercises one phase should end up with.
type PhasePlan struct {
	Phase content.Phase
	Count int
}

// EnsureExercises fires background generation for every phase in the
// plan that still runs on placeholders. It returns immediately.
func (s *Service) EnsureExercises(ctx context.Context, lesson *content.Lesson, theoryChunks []string, plan []PhasePlan) {
	theory := joinTheory(theoryChunks, s.cfg.TheoryCharLimit)
	if theory == "" {
		return
	}
	go func() {
		for _, p := range plan {
			s.ensurePhase(ctx, lesson, theory, p.Phase, p.Count)
		}
	}()
}

// Consume returns and clears the freshly generated batch for a lesson
// phase, if one is ready.
func (s *Service) Consume(lessonID string, phase content.Phase) ([]content.Exercise, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pendingKey(lessonID, phase)
	exs, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	return exs, ok
}

func (s *Service) ensurePhase(ctx context.Context, lesson *content.Lesson, theory string, phase content.Phase, count int) {
	// Cheap store check first: imported textbook lessons often already
	// carry plenty of real exercises.
	if s.repo != nil {
		existing, err := s.repo.Exercises(ctx, lesson.ID, phase)
		if err == nil && len(existing) >= s.cfg.MinRealExercises {
			s.logger.Debug("generation skipped", "lesson", lesson.Title, "phase", phase, "existing", len(existing))
			return
		}
	}

	exs, err := s.generate(ctx, lesson, theory, phase, count)
	if err != nil {
		s.logger.Warn("exercise generation failed", "lesson", lesson.Title, "phase", phase, "err", err)
		exs = FallbackExercises(lesson, phase, count)
	}
	if len(exs) == 0 {
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveExercises(ctx, exs); err != nil {
			s.logger.Warn("saving generated exercises failed", "lesson", lesson.Title, "err", err)
		}
	}

	s.mu.Lock()
	s.pending[pendingKey(lesson.ID, phase)] = exs
	s.mu.Unlock()
	s.logger.Info("exercises generated", "lesson", lesson.Title, "phase", phase, "count", len(exs))
}

type exerciseBatch struct {
	Exercises []generatedExercise `json:"exercises"`
}

type generatedExercise struct {
	Prompt      string   `json:"prompt"`
	Answer      string   `json:"answer"`
	Choices     []string `json:"choices"`
	Hint1       string   `json:"hint1"`
	Hint2       string   `json:"hint2"`
	Hint3       string   `json:"hint3"`
	Explanation string   `json:"explanation"`
	Difficulty  int      `json:"difficulty"`
	SkillCodes  []string `json:"skill_codes"`
}

func (s *Service) generate(ctx context.Context, lesson *content.Lesson, theory string, phase content.Phase, count int) ([]content.Exercise, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}
	ctx = llm.WithPurpose(ctx, "exercise-generation")

	req := llm.Request{
		System: exerciseSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildExerciseUserMessage(lesson, theory, phase, count)},
		},
		Schema:      ExerciseBatchSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("exercise generation: %w", err)
	}

	var batch exerciseBatch
	if err := json.Unmarshal(resp.Content, &batch); err != nil {
		return nil, fmt.Errorf("parse exercise batch: %w", err)
	}

	var out []content.Exercise
	for _, g := range batch.Exercises {
		prompt := strings.TrimSpace(g.Prompt)
		answer := strings.TrimSpace(g.Answer)
		if prompt == "" || content.CorruptAnswer(answer) {
			continue
		}
		diff := g.Difficulty
		if diff < 1 || diff > 5 {
			diff = 1
		}
		out = append(out, content.Exercise{
			ID:          uuid.NewString(),
			LessonID:    lesson.ID,
			Phase:       phase,
			Prompt:      prompt,
			Answer:      answer,
			Choices:     g.Choices,
			Hints:       trimHints(g.Hint1, g.Hint2, g.Hint3),
			Explanation: strings.TrimSpace(g.Explanation),
			Difficulty:  diff,
			SkillCodes:  g.SkillCodes,
		})
		if len(out) >= count {
			break
		}
	}
	return out, nil
}

func trimHints(hints ...string) []string {
	var out []string
	for _, h := range hints {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func joinTheory(chunks []string, limit int) string {
	if len(chunks) > 4 {
		chunks = chunks[:4]
	}
	joined := strings.Join(chunks, "\n\n")
	if r := []rune(joined); limit > 0 && len(r) > limit {
		joined = string(r[:limit])
	}
	return strings.TrimSpace(joined)
}

func pendingKey(lessonID string, phase content.Phase) string {
	return lessonID + "/" + string(phase)
}
