package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/lectio/internal/content"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type contentRepo struct {
	db *sql.DB
}

func (r *contentRepo) ListLessons(ctx context.Context) ([]content.Lesson, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, subject, grade, summary, theory FROM lessons ORDER BY grade, title`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var out []content.Lesson
	for rows.Next() {
		var l content.Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Subject, &l.Grade, &l.Summary, &l.Theory); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *contentRepo) GetLesson(ctx context.Context, id string) (*content.Lesson, error) {
	var l content.Lesson
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, subject, grade, summary, theory FROM lessons WHERE id = ?`, id).
		Scan(&l.ID, &l.Title, &l.Subject, &l.Grade, &l.Summary, &l.Theory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &l, nil
}

func (r *contentRepo) Exercises(ctx context.Context, lessonID string, phase content.Phase) ([]content.Exercise, error) {
	q := `SELECT id, lesson_id, phase, prompt, answer, choices, hints, explanation,
			difficulty, tier, skill_codes
		FROM exercises WHERE lesson_id = ?`
	args := []any{lessonID}
	if phase != "" {
		q += ` AND phase = ?`
		args = append(args, string(phase))
	}
	q += ` ORDER BY difficulty, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []content.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		// Filler rows seeded before generation finished never reach
		// the learner.
		if content.IsPlaceholder(&ex) {
			continue
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (r *contentRepo) ExercisesByID(ctx context.Context, ids []string) ([]content.Exercise, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lesson_id, phase, prompt, answer, choices, hints, explanation,
			difficulty, tier, skill_codes
		FROM exercises WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("exercises by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]content.Exercise, len(ids))
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		byID[ex.ID] = ex
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []content.Exercise
	for _, id := range ids {
		if ex, ok := byID[id]; ok {
			out = append(out, ex)
		}
	}
	return out, nil
}

func scanExercise(rows *sql.Rows) (content.Exercise, error) {
	var ex content.Exercise
	var phase, choices, hints, skills string
	err := rows.Scan(&ex.ID, &ex.LessonID, &phase, &ex.Prompt, &ex.Answer,
		&choices, &hints, &ex.Explanation, &ex.Difficulty, &ex.Tier, &skills)
	if err != nil {
		return ex, err
	}
	ex.Phase = content.Phase(phase)
	if err := unmarshalList(choices, &ex.Choices); err != nil {
		return ex, err
	}
	if err := unmarshalList(hints, &ex.Hints); err != nil {
		return ex, err
	}
	if err := unmarshalList(skills, &ex.SkillCodes); err != nil {
		return ex, err
	}
	return ex, nil
}

func (r *contentRepo) MicroQuizzes(ctx context.Context, lessonID string) ([]content.MicroQuiz, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lesson_id, chunk_index, prompt, answer, choices
		FROM micro_quizzes WHERE lesson_id = ? ORDER BY chunk_index, id`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list micro quizzes: %w", err)
	}
	defer rows.Close()

	var out []content.MicroQuiz
	for rows.Next() {
		var q content.MicroQuiz
		var choices string
		if err := rows.Scan(&q.ID, &q.LessonID, &q.ChunkIndex, &q.Prompt, &q.Answer, &choices); err != nil {
			return nil, err
		}
		if err := unmarshalList(choices, &q.Choices); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *contentRepo) SaveLesson(ctx context.Context, lesson *content.Lesson, exercises []content.Exercise, quizzes []content.MicroQuiz) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save lesson: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lessons (id, title, subject, grade, summary, theory)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, subject = excluded.subject,
			grade = excluded.grade, summary = excluded.summary,
			theory = excluded.theory`,
		lesson.ID, lesson.Title, lesson.Subject, lesson.Grade, lesson.Summary, lesson.Theory)
	if err != nil {
		return fmt.Errorf("save lesson %s: %w", lesson.ID, err)
	}

	for i := range exercises {
		if err := upsertExercise(ctx, tx, &exercises[i]); err != nil {
			return err
		}
	}
	for _, q := range quizzes {
		choices, err := marshalList(q.Choices)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO micro_quizzes (id, lesson_id, chunk_index, prompt, answer, choices)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				chunk_index = excluded.chunk_index, prompt = excluded.prompt,
				answer = excluded.answer, choices = excluded.choices`,
			q.ID, q.LessonID, q.ChunkIndex, q.Prompt, q.Answer, choices)
		if err != nil {
			return fmt.Errorf("save micro quiz %s: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

func (r *contentRepo) SaveExercises(ctx context.Context, exercises []content.Exercise) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save exercises: %w", err)
	}
	defer tx.Rollback()

	for i := range exercises {
		if err := upsertExercise(ctx, tx, &exercises[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertExercise(ctx context.Context, tx *sql.Tx, ex *content.Exercise) error {
	choices, err := marshalList(ex.Choices)
	if err != nil {
		return err
	}
	hints, err := marshalList(ex.Hints)
	if err != nil {
		return err
	}
	skills, err := marshalList(ex.SkillCodes)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO exercises (id, lesson_id, phase, prompt, answer, choices,
			hints, explanation, difficulty, tier, skill_codes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase, prompt = excluded.prompt,
			answer = excluded.answer, choices = excluded.choices,
			hints = excluded.hints, explanation = excluded.explanation,
			difficulty = excluded.difficulty, tier = excluded.tier,
			skill_codes = excluded.skill_codes`,
		ex.ID, ex.LessonID, string(ex.Phase), ex.Prompt, ex.Answer, choices,
		hints, ex.Explanation, ex.Difficulty, ex.Tier, skills)
	if err != nil {
		return fmt.Errorf("save exercise %s: %w", ex.ID, err)
	}
	return nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalList(s string, dst *[]string) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}
