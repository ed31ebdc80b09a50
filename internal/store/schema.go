package store

import "database/sql"

// schema holds the full DDL. Statements are idempotent so migration
// can run at every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS lessons (
		id        TEXT PRIMARY KEY,
		title     TEXT NOT NULL,
		subject   TEXT NOT NULL DEFAULT '',
		grade     INTEGER NOT NULL DEFAULT 0,
		summary   TEXT NOT NULL DEFAULT '',
		theory    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		id          TEXT PRIMARY KEY,
		lesson_id   TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		phase       TEXT NOT NULL DEFAULT 'practice',
		prompt      TEXT NOT NULL,
		answer      TEXT NOT NULL,
		choices     TEXT NOT NULL DEFAULT '[]',
		hints       TEXT NOT NULL DEFAULT '[]',
		explanation TEXT NOT NULL DEFAULT '',
		difficulty  INTEGER NOT NULL DEFAULT 1,
		tier        INTEGER NOT NULL DEFAULT 0,
		skill_codes TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exercises_lesson
		ON exercises(lesson_id, phase)`,
	`CREATE TABLE IF NOT EXISTS micro_quizzes (
		id          TEXT PRIMARY KEY,
		lesson_id   TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL DEFAULT 0,
		prompt      TEXT NOT NULL,
		answer      TEXT NOT NULL,
		choices     TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS user_skills (
		learner_id        TEXT NOT NULL,
		skill_code        TEXT NOT NULL,
		mastery           REAL NOT NULL DEFAULT 0,
		attempts          INTEGER NOT NULL DEFAULT 0,
		correct           INTEGER NOT NULL DEFAULT 0,
		level             INTEGER NOT NULL DEFAULT 0,
		streak            INTEGER NOT NULL DEFAULT 0,
		avg_response_sec  REAL NOT NULL DEFAULT 0,
		last_practiced   TIMESTAMP,
		PRIMARY KEY (learner_id, skill_code)
	)`,
	`CREATE TABLE IF NOT EXISTS exercise_reviews (
		learner_id    TEXT NOT NULL,
		exercise_id   TEXT NOT NULL,
		wrong_count   INTEGER NOT NULL DEFAULT 0,
		easiness      REAL NOT NULL DEFAULT 2.5,
		repetitions   INTEGER NOT NULL DEFAULT 0,
		interval_days INTEGER NOT NULL DEFAULT 0,
		next_review   TIMESTAMP,
		last_review   TIMESTAMP,
		PRIMARY KEY (learner_id, exercise_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		learner_id       TEXT NOT NULL,
		lesson_id        TEXT NOT NULL,
		state            TEXT NOT NULL DEFAULT '',
		started_at       TIMESTAMP NOT NULL,
		ended_at         TIMESTAMP,
		pre_score        INTEGER NOT NULL DEFAULT 0,
		post_score       INTEGER NOT NULL DEFAULT 0,
		practice_correct INTEGER NOT NULL DEFAULT 0,
		practice_total   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS session_answers (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		exercise_id  TEXT NOT NULL,
		phase        TEXT NOT NULL DEFAULT '',
		answer       TEXT NOT NULL DEFAULT '',
		correct      INTEGER NOT NULL DEFAULT 0,
		hints_used   INTEGER NOT NULL DEFAULT 0,
		response_sec REAL NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_progress (
		learner_id       TEXT NOT NULL,
		lesson_id        TEXT NOT NULL,
		best_score       INTEGER NOT NULL DEFAULT 0,
		attempts         INTEGER NOT NULL DEFAULT 0,
		consecutive_good INTEGER NOT NULL DEFAULT 0,
		completed        INTEGER NOT NULL DEFAULT 0,
		updated_at       TIMESTAMP,
		PRIMARY KEY (learner_id, lesson_id)
	)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
