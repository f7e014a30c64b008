package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"quiz-arena-service/internal/infra/postgres"
)

func init() {
	models := []interface{}{
		(*postgres.PlayerStats)(nil),
		(*postgres.CompletionRecord)(nil),
		(*postgres.PlayerAchievement)(nil),
	}
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range models {
				if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return err
				}
			}
			if _, err := db.NewCreateIndex().
				Model((*postgres.CompletionRecord)(nil)).
				Index("completions_player_id_idx").
				IfNotExists().
				Column("player_id").
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().
				Model((*postgres.CompletionRecord)(nil)).
				Index("completions_run_player_idx").
				Unique().
				IfNotExists().
				Column("run_id", "player_id").
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			for i := len(models) - 1; i >= 0; i-- {
				if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
