package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type progressRepo struct {
	store *Store
}

func (r *progressRepo) GetProgress(ctx context.Context, learnerID, lessonID string) (*ProgressRow, error) {
	var p ProgressRow
	var updated sql.NullString
	err := r.store.db.QueryRowContext(ctx,
		`SELECT lesson_id, best_score, attempts, consecutive_good, completed, updated_at
		FROM lesson_progress WHERE learner_id = ? AND lesson_id = ?`,
		learnerID, lessonID).
		Scan(&p.LessonID, &p.BestScore, &p.Attempts, &p.ConsecutiveGood, &p.Completed, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	p.UpdatedAt = timeFromDB(updated)
	return &p, nil
}

func (r *progressRepo) ListProgress(ctx context.Context, learnerID string) ([]ProgressRow, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT lesson_id, best_score, attempts, consecutive_good, completed, updated_at
		FROM lesson_progress WHERE learner_id = ? ORDER BY lesson_id`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRow
	for rows.Next() {
		var p ProgressRow
		var updated sql.NullString
		if err := rows.Scan(&p.LessonID, &p.BestScore, &p.Attempts, &p.ConsecutiveGood, &p.Completed, &updated); err != nil {
			return nil, err
		}
		p.UpdatedAt = timeFromDB(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *progressRepo) UpsertProgress(ctx context.Context, learnerID string, row ProgressRow) error {
	lock := r.store.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (learner_id, lesson_id, best_score,
			attempts, consecutive_good, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, lesson_id) DO UPDATE SET
			best_score = excluded.best_score, attempts = excluded.attempts,
			consecutive_good = excluded.consecutive_good,
			completed = excluded.completed, updated_at = excluded.updated_at`,
		learnerID, row.LessonID, row.BestScore, row.Attempts,
		row.ConsecutiveGood, row.Completed, timeToDB(row.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save progress %s: %w", row.LessonID, err)
	}
	return nil
}
