package genex

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/abhisek/lectio/internal/llm"
)

// Deflection messages used when a free question cannot be answered.
const (
	deflectRetry       = "Întrebare bună! Reformulează în 1 propoziție și încercăm din nou."
	deflectUnavailable = "Momentan nu te pot ajuta cu asta. Poți scrie mai simplu și reîncercăm."
)

type questionJob struct {
	ctx    context.Context
	prompt string
	cb     func(string)
}

// Questions answers free-form learner questions on a background
// worker. Answers arrive via callback; a question never blocks the
// session, and every failure path delivers a friendly deflection.
type Questions struct {
	provider llm.Provider
	cfg      Config
	logger   *log.Logger
	pending  chan questionJob
}

// NewQuestions creates the free-question worker. provider may be nil;
// every question then gets the unavailable deflection.
func NewQuestions(provider llm.Provider, cfg Config, logger *log.Logger) *Questions {
	if logger == nil {
		logger = log.Default()
	}
	q := &Questions{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		pending:  make(chan questionJob, 8),
	}
	if provider != nil {
		go q.processLoop()
	}
	return q
}

// Ask dispatches one question. cb always fires exactly once, from the
// worker goroutine, with either an answer or a deflection.
func (q *Questions) Ask(ctx context.Context, prompt string, cb func(string)) {
	if cb == nil {
		return
	}
	if q.provider == nil || strings.TrimSpace(prompt) == "" {
		go cb(deflectUnavailable)
		return
	}
	select {
	case q.pending <- questionJob{ctx: ctx, prompt: prompt, cb: cb}:
	default:
		// Worker is backed up; answer with a deflection rather than
		// queueing stale questions.
		go cb(deflectRetry)
	}
}

func (q *Questions) processLoop() {
	for job := range q.pending {
		job.cb(q.answer(job.ctx, job.prompt))
	}
}

func (q *Questions) answer(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "free-question"), q.cfg.QuestionTimeout)
	defer cancel()

	resp, err := q.provider.Generate(ctx, llm.Request{
		System:      freeQuestionSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   q.cfg.MaxTokens,
		Temperature: q.cfg.Temperature,
	})
	if err != nil {
		q.logger.Warn("free question failed", "err", err)
		return deflectUnavailable
	}

	text := decodeText(resp.Content)
	if text == "" {
		return deflectRetry
	}
	return text
}

// decodeText unwraps a schemaless response: providers wrap raw text as
// a JSON string.
func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
