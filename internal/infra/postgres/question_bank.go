package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
)

const selectQuestions = `
SELECT id, text, options, correct_answer_index, explanation, difficulty, category, points, time_limit_seconds
FROM questions
WHERE ($1::text = '' OR $1::text = 'general' OR category = $1::text)
  AND ($2::text = '' OR difficulty = $2::text)
ORDER BY random()
LIMIT $3`

// QuestionBank serves question sets from the questions table. Options are
// stored as JSONB.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Generate(ctx context.Context, req content.Request) ([]domain.Question, error) {
	req = req.Normalize()

	questions, err := b.query(ctx, req.Subject, req.Difficulty, req.Count)
	if err != nil {
		return nil, err
	}
	if len(questions) < req.Count && req.Difficulty != "" {
		if questions, err = b.query(ctx, req.Subject, "", req.Count); err != nil {
			return nil, err
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for %q", domain.ErrContentUnavailable, req.Subject)
	}
	return content.ForMode(req.Mode, questions), nil
}

func (b *QuestionBank) query(ctx context.Context, subject, difficulty string, limit int) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, selectQuestions, subject, difficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		options []byte
	)
	err := row.Scan(&q.ID, &q.Text, &options, &q.CorrectAnswerIndex, &q.Explanation,
		&q.Difficulty, &q.Category, &q.Points, &q.TimeLimitSeconds)
	if err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
	}
	return q, nil
}
