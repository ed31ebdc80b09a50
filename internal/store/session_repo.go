package store

import (
	"context"
	"fmt"
)

type sessionRepo struct {
	store *Store
}

func (r *sessionRepo) CreateSession(ctx context.Context, row SessionRow) error {
	lock := r.store.learnerLock(row.LearnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO sessions (id, learner_id, lesson_id, state, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.LearnerID, row.LessonID, row.State, timeToDB(row.StartedAt))
	if err != nil {
		return fmt.Errorf("create session %s: %w", row.ID, err)
	}
	return nil
}

func (r *sessionRepo) FinishSession(ctx context.Context, row SessionRow) error {
	lock := r.store.learnerLock(row.LearnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, ended_at = ?, pre_score = ?,
			post_score = ?, practice_correct = ?, practice_total = ?
		WHERE id = ?`,
		row.State, timeToDB(row.EndedAt), row.PreScore, row.PostScore,
		row.PracticeCorrect, row.PracticeTotal, row.ID)
	if err != nil {
		return fmt.Errorf("finish session %s: %w", row.ID, err)
	}
	return nil
}

func (r *sessionRepo) RecordAnswer(ctx context.Context, learnerID string, row AnswerRow) error {
	lock := r.store.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO session_answers (session_id, exercise_id, phase, answer,
			correct, hints_used, response_sec, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID, row.ExerciseID, string(row.Phase), row.Answer,
		row.Correct, row.HintsUsed, row.ResponseSec, timeToDB(row.CreatedAt))
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}
