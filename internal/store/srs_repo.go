package store

import (
	"context"
	"database/sql"
	"fmt"
)

type srsRepo struct {
	store *Store
}

func (r *srsRepo) ListReviews(ctx context.Context, learnerID string) ([]SRSRow, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT exercise_id, wrong_count, easiness, repetitions, interval_days,
			next_review, last_review
		FROM exercise_reviews WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []SRSRow
	for rows.Next() {
		var srs SRSRow
		var next, last sql.NullString
		err := rows.Scan(&srs.ExerciseID, &srs.WrongCount, &srs.Easiness,
			&srs.Repetitions, &srs.IntervalDays, &next, &last)
		if err != nil {
			return nil, err
		}
		srs.NextReview = timeFromDB(next)
		srs.LastReview = timeFromDB(last)
		out = append(out, srs)
	}
	return out, rows.Err()
}

func (r *srsRepo) SaveReview(ctx context.Context, learnerID string, row SRSRow) error {
	lock := r.store.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO exercise_reviews (learner_id, exercise_id, wrong_count,
			easiness, repetitions, interval_days, next_review, last_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, exercise_id) DO UPDATE SET
			wrong_count = excluded.wrong_count, easiness = excluded.easiness,
			repetitions = excluded.repetitions,
			interval_days = excluded.interval_days,
			next_review = excluded.next_review,
			last_review = excluded.last_review`,
		learnerID, row.ExerciseID, row.WrongCount, row.Easiness,
		row.Repetitions, row.IntervalDays, timeToDB(row.NextReview), timeToDB(row.LastReview))
	if err != nil {
		return fmt.Errorf("save review %s: %w", row.ExerciseID, err)
	}
	return nil
}
