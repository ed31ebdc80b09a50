package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/lectio/internal/content"
	"github.com/abhisek/lectio/internal/misconception"
	"github.com/abhisek/lectio/internal/spacedrep"
	"github.com/abhisek/lectio/internal/store"
)

// SubmitAnswer takes the learner's answer for the current exercise or
// micro quiz. All adaptation happens here, synchronously: streaks,
// difficulty tier, mastery, review scheduling, misconception feedback.
func (e *Engine) SubmitAnswer(ctx context.Context, s *Session, answer string, meta AnswerMeta) {
	if s == nil || !s.State.acceptsAnswers() {
		return
	}
	if s.State == StateMicroQuiz {
		e.answerQuiz(ctx, s, answer)
		return
	}
	e.answerExercise(ctx, s, answer, meta)
}

func (e *Engine) answerExercise(ctx context.Context, s *Session, answer string, meta AnswerMeta) {
	ex := s.currentExercise()
	if ex == nil {
		return
	}

	answer = strings.TrimSpace(answer)
	correct := content.CheckAnswer(answer, ex)
	s.recordTiming(meta)

	var feedback, emotion string
	if correct {
		s.correctStreak++
		s.wrongStreak = 0
		feedback = pick(encouragements, s.answersCount)
		emotion = EmotionHappy
		switch s.correctStreak {
		case 3, 5:
			s.emit(StreakMilestone{Streak: s.correctStreak})
		case 10:
			emotion = EmotionExcited
			s.emit(StreakMilestone{Streak: s.correctStreak})
		}
	} else {
		s.correctStreak = 0
		s.wrongStreak++
		feedback = e.wrongFeedback(s, ex, answer)
		emotion = EmotionSad
		if s.wrongStreak >= 2 {
			emotion = EmotionEncouraging
		}
	}

	if tc := s.Tier.Record(correct); tc != nil {
		s.emit(TierChanged{From: tc.From, To: tc.To})
		if tc.To > tc.From {
			s.emit(AvatarMessage{Text: tierUpMessage(tc.To), Emotion: EmotionExcited})
		} else {
			s.emit(AvatarMessage{Text: tierDownMessage(tc.To), Emotion: EmotionNeutral})
		}
	}

	qr := QuestionResult{
		ExerciseID: ex.ID,
		Answer:     answer,
		Correct:    correct,
		HintsUsed:  s.hintsUsed,
		TimeSec:    meta.ResponseSec,
		Feedback:   feedback,
		Meta:       meta,
	}
	s.appendResult(qr)

	if e.sessions != nil {
		err := e.sessions.RecordAnswer(ctx, s.LearnerID, store.AnswerRow{
			SessionID:   s.ID,
			ExerciseID:  ex.ID,
			Phase:       phaseOf(s.State),
			Answer:      qr.Answer,
			Correct:     qr.Correct,
			HintsUsed:   qr.HintsUsed,
			ResponseSec: qr.TimeSec,
			CreatedAt:   e.now(),
		})
		if err != nil {
			e.warnPersistence(s, "record answer", err)
		}
	}

	codes := skillCodesFor(s.Lesson, ex)
	if _, err := s.Mastery.RecordAttempt(ctx, codes, correct, s.Tier.Weight(), meta.ResponseSec, e.now()); err != nil {
		e.warnPersistence(s, "save skill mastery", err)
	}

	quality := spacedrep.QualityFor(correct, qr.HintsUsed, meta.ResponseSec, s.avgAnswerSec)
	if _, err := s.SRS.Record(ctx, ex.ID, quality, e.now()); err != nil {
		e.warnPersistence(s, "save review schedule", err)
	}

	s.emit(AnswerResult{Result: qr})
	s.emit(AvatarMessage{Text: feedback, Emotion: emotion})

	if s.State == StatePractice && s.wrongStreak >= e.cfg.ReteachAfterWrong {
		s.wrongStreak = 0
		s.hintsUsed = 0
		e.reteach(ctx, s)
		return
	}

	s.hintsUsed = 0
	s.exerciseIdx++
	s.waitingContinue = true
}

// wrongFeedback diagnoses the shape of the mistake, falling back to
// the exercise's canned explanation or a generic nudge.
func (e *Engine) wrongFeedback(s *Session, ex *content.Exercise, answer string) string {
	expected := ex.Answer
	if alts := content.Alternates(ex.Answer); len(alts) > 0 {
		expected = alts[0]
	}
	if hint, ok := misconception.Diagnose(e.rules, misconception.Input{
		Subject:       s.Lesson.Subject,
		Prompt:        ex.Prompt,
		Expected:      expected,
		LearnerAnswer: answer,
	}); ok {
		return hint
	}
	if ex.Explanation != "" {
		return ex.Explanation
	}
	return pick(tryAgainMessages, s.answersCount)
}

// reteach jumps the theory to an alternate chunk after repeated
// misses. The triggering exercise stays current; the learner retries
// it after rereading.
func (e *Engine) reteach(ctx context.Context, s *Session) {
	n := len(s.theoryChunks)
	if n == 0 {
		e.showExercise(ctx, s)
		return
	}
	if n == 1 {
		recap := []rune(strings.TrimSpace(s.theoryChunks[0]))
		if len(recap) > e.cfg.RecapChars {
			recap = recap[:e.cfg.RecapChars]
		}
		s.emit(AvatarMessage{Text: recapMessage(strings.TrimSpace(string(recap))), Emotion: EmotionEncouraging})
		e.showExercise(ctx, s)
		return
	}

	current := s.chunkIdx
	if current < 0 || current >= n {
		current = n - 1
	}
	// The alternate index goes in before the transition so the chunk
	// view never flashes the old paragraph.
	s.chunkIdx = (current + 1) % n
	s.reteaching = true
	s.emit(AvatarMessage{Text: msgReteach, Emotion: EmotionEncouraging})
	e.transition(s, StateLessonChunk)
	e.showChunk(ctx, s)
}

func (e *Engine) answerQuiz(ctx context.Context, s *Session, answer string) {
	quiz := s.activeQuiz
	s.activeQuiz = nil
	if quiz == nil {
		e.transition(s, StateLessonChunk)
		s.chunkIdx++
		e.showChunk(ctx, s)
		return
	}

	expected := content.Normalize(quiz.Answer)
	got := content.Normalize(answer)
	ok := expected != "" && (got == expected || strings.Contains(got, expected))

	if ok {
		s.emit(AvatarMessage{Text: pick(encouragements, s.answersCount), Emotion: EmotionHappy})
		e.transition(s, StateLessonChunk)
		s.chunkIdx++
		e.showChunk(ctx, s)
		return
	}
	// Wrong: reread the same chunk, no advance.
	s.emit(AvatarMessage{Text: msgQuizRetry, Emotion: EmotionThinking})
	e.transition(s, StateLessonChunk)
	e.showChunk(ctx, s)
}

// RequestHint reveals the next graduated hint for the current
// exercise. Past the third hint it keeps answering with a generic
// nudge instead of erroring.
func (e *Engine) RequestHint(s *Session) string {
	if s == nil || !s.State.acceptsHints() {
		return ""
	}
	ex := s.currentExercise()
	if ex == nil {
		return ""
	}
	s.hintsUsed++
	n := s.hintsUsed
	text, ok := ex.HintAt(n)
	if !ok {
		text = pick(hintFallbacks, n)
	}
	s.emit(HintShown{Text: text, Number: n})
	s.emit(AvatarMessage{Text: text, Emotion: EmotionThinking})
	return text
}

// AdvanceAfterResult moves past a shown answer result. Separate from
// SubmitAnswer so the learner reads the feedback and continues
// deliberately instead of being rushed.
func (e *Engine) AdvanceAfterResult(ctx context.Context, s *Session) {
	if s == nil || !s.waitingContinue {
		return
	}
	s.waitingContinue = false
	e.showExercise(ctx, s)
}

func (e *Engine) completePhase(ctx context.Context, s *Session) {
	switch s.State {
	case StateWarmup:
		s.emit(AvatarMessage{Text: msgWarmupDone, Emotion: EmotionHappy})
		if len(s.pretestExercises) > 0 {
			e.enterPretest(ctx, s)
		} else {
			e.startIntro(ctx, s)
		}

	case StatePretest:
		score := s.PretestScore()
		s.emit(PhaseCompleted{Phase: "pretest", Score: score})
		if score >= e.cfg.PretestPassScore {
			// Strong pretest shortens the lesson: jump near the end
			// of the theory.
			s.emit(AvatarMessage{Text: msgPretestSkip, Emotion: EmotionExcited})
			s.chunkIdx = max(0, len(s.theoryChunks)-2)
			e.transition(s, StateLessonChunk)
			e.showChunk(ctx, s)
		} else {
			e.startIntro(ctx, s)
		}

	case StatePractice:
		s.emit(PhaseCompleted{Phase: "practice", Score: s.PracticeScore()})
		e.startPosttest(ctx, s)

	case StatePosttest:
		s.emit(PhaseCompleted{Phase: "posttest", Score: s.PosttestScore()})
		e.finish(ctx, s)
	}
}

func (e *Engine) finish(ctx context.Context, s *Session) {
	pre := s.PretestScore()
	practice := s.PracticeScore()
	post := s.PosttestScore()
	passed := post >= e.cfg.PosttestPassScore
	now := e.now()

	practiceCorrect := 0
	for _, r := range s.practiceResults {
		if r.Correct {
			practiceCorrect++
		}
	}

	if e.sessions != nil {
		err := e.sessions.FinishSession(ctx, store.SessionRow{
			ID:              s.ID,
			LearnerID:       s.LearnerID,
			LessonID:        s.Lesson.ID,
			State:           "done",
			StartedAt:       s.startedAt,
			EndedAt:         now,
			PreScore:        int(pre),
			PostScore:       int(post),
			PracticeCorrect: practiceCorrect,
			PracticeTotal:   len(s.practiceResults),
		})
		if err != nil {
			e.warnPersistence(s, "finish session", err)
		}
	}
	e.updateProgress(ctx, s, int(post), passed, now)

	e.transition(s, StateSummary)
	summary := Summary{
		LessonID:      s.Lesson.ID,
		PretestScore:  pre,
		PracticeScore: practice,
		PosttestScore: post,
		Passed:        passed,
		Duration:      now.Sub(s.startedAt),
		TotalAnswers:  s.answersCount,
		AvgAnswerSec:  s.avgAnswerSec,
		AvgEdits:      s.avgEdits,
	}
	emotion := EmotionEncouraging
	if passed {
		emotion = EmotionExcited
	}
	s.emit(AvatarMessage{Text: summaryMessage(pre, practice, post, s.avgAnswerSec, s.avgEdits, passed), Emotion: emotion})
	s.emit(SessionDone{Summary: summary})
	e.transition(s, StateDone)
}

func (e *Engine) updateProgress(ctx context.Context, s *Session, score int, passed bool, now time.Time) {
	if e.progress == nil {
		return
	}
	row := store.ProgressRow{LessonID: s.Lesson.ID}
	if existing, err := e.progress.GetProgress(ctx, s.LearnerID, s.Lesson.ID); err == nil && existing != nil {
		row = *existing
	}
	row.Attempts++
	if score > row.BestScore {
		row.BestScore = score
	}
	if passed {
		row.ConsecutiveGood++
		row.Completed = true
	} else {
		row.ConsecutiveGood = 0
	}
	row.UpdatedAt = now
	if err := e.progress.UpsertProgress(ctx, s.LearnerID, row); err != nil {
		e.warnPersistence(s, "save progress", err)
	}
}

func (e *Engine) warnPersistence(s *Session, op string, err error) {
	e.logger.Warn("persistence failed, session continues", "op", op, "err", err)
	s.emit(PersistenceWarning{Op: op, Err: err})
}

func phaseOf(state State) content.Phase {
	switch state {
	case StateWarmup:
		return content.Phase("warmup")
	case StatePretest:
		return content.PhasePretest
	case StatePosttest:
		return content.PhasePosttest
	default:
		return content.PhasePractice
	}
}

// skillCodesFor returns the exercise's skill tags, or a subject/grade
// derived code so untagged content still feeds the mastery tracker.
func skillCodesFor(lesson *content.Lesson, ex *content.Exercise) []string {
	if len(ex.SkillCodes) > 0 {
		return ex.SkillCodes
	}
	subject := strings.ToUpper(lesson.Subject)
	prefix := "GEN"
	switch {
	case strings.Contains(subject, "MAT"):
		prefix = "MATH"
	case strings.Contains(subject, "ROM"), strings.Contains(subject, "COMUNICARE"):
		prefix = "RO"
	}
	return []string{fmt.Sprintf("%s_%d", prefix, lesson.Grade)}
}
