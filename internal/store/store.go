// Package store persists lessons, exercises and learner progress in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database and hands out repositories.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open connects to the SQLite database at dsn, applies pragmas and
// runs migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// learnerLock returns the mutex serializing writes for one learner.
// Repositories take it around multi-statement updates so concurrent
// sessions for the same learner cannot interleave.
func (s *Store) learnerLock(learnerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[learnerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[learnerID] = l
	}
	return l
}

// Content returns the lesson/exercise repository.
func (s *Store) Content() ContentRepo { return &contentRepo{db: s.db} }

// Skills returns the per-learner skill state repository.
func (s *Store) Skills() SkillRepo { return &skillRepo{store: s} }

// Reviews returns the spaced repetition repository.
func (s *Store) Reviews() SRSRepo { return &srsRepo{store: s} }

// Sessions returns the session log repository.
func (s *Store) Sessions() SessionRepo { return &sessionRepo{store: s} }

// Progress returns the per-lesson progress repository.
func (s *Store) Progress() ProgressRepo { return &progressRepo{store: s} }

// ResetLearner wipes everything the learner has accumulated: skill
// state, review schedules, session logs and lesson progress. Lesson
// content is untouched.
func (s *Store) ResetLearner(ctx context.Context, learnerID string) error {
	lock := s.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	stmts := []string{
		`DELETE FROM session_answers WHERE session_id IN
			(SELECT id FROM sessions WHERE learner_id = ?)`,
		`DELETE FROM sessions WHERE learner_id = ?`,
		`DELETE FROM user_skills WHERE learner_id = ?`,
		`DELETE FROM exercise_reviews WHERE learner_id = ?`,
		`DELETE FROM lesson_progress WHERE learner_id = ?`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, learnerID); err != nil {
			tx.Rollback()
			return fmt.Errorf("reset learner %s: %w", learnerID, err)
		}
	}
	return tx.Commit()
}

// applyPragmas configures SQLite for single-user local use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. LECTIO_DB environment variable
// 2. $XDG_DATA_HOME/lectio/lectio.db
// 3. ~/.local/share/lectio/lectio.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LECTIO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lectio", "lectio.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
