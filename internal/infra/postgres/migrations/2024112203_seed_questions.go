package migrations

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"quiz-arena-service/internal/content"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, q := range content.SeededQuestions() {
				options, err := json.Marshal(q.Options)
				if err != nil {
					return err
				}
				_, err = db.ExecContext(ctx, `INSERT INTO questions
					(id, text, options, correct_answer_index, explanation, difficulty, category, points, time_limit_seconds)
					VALUES (?, ?, ?::jsonb, ?, ?, ?, ?, ?, ?)
					ON CONFLICT (id) DO NOTHING`,
					q.ID, q.Text, string(options), q.CorrectAnswerIndex, q.Explanation,
					q.Difficulty, q.Category, q.Points, q.TimeLimitSeconds)
				if err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM questions WHERE id LIKE 'seed-%'`)
			return err
		},
	)
}
