package store

import (
	"context"
	"database/sql"
	"fmt"
)

type skillRepo struct {
	store *Store
}

func (r *skillRepo) ListSkills(ctx context.Context, learnerID string) ([]SkillRow, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT skill_code, mastery, attempts, correct, level, streak,
			avg_response_sec, last_practiced
		FROM user_skills WHERE learner_id = ? ORDER BY skill_code`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var out []SkillRow
	for rows.Next() {
		var s SkillRow
		var lastPracticed sql.NullString
		err := rows.Scan(&s.SkillCode, &s.Mastery, &s.Attempts, &s.Correct,
			&s.Level, &s.Streak, &s.AvgResponseSec, &lastPracticed)
		if err != nil {
			return nil, err
		}
		s.LastPracticed = timeFromDB(lastPracticed)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *skillRepo) SaveSkill(ctx context.Context, learnerID string, row SkillRow) error {
	lock := r.store.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO user_skills (learner_id, skill_code, mastery, attempts,
			correct, level, streak, avg_response_sec, last_practiced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, skill_code) DO UPDATE SET
			mastery = excluded.mastery, attempts = excluded.attempts,
			correct = excluded.correct, level = excluded.level,
			streak = excluded.streak,
			avg_response_sec = excluded.avg_response_sec,
			last_practiced = excluded.last_practiced`,
		learnerID, row.SkillCode, row.Mastery, row.Attempts, row.Correct,
		row.Level, row.Streak, row.AvgResponseSec, timeToDB(row.LastPracticed))
	if err != nil {
		return fmt.Errorf("save skill %s: %w", row.SkillCode, err)
	}
	return nil
}
