package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/stats"
)

// PlayerStats is the per-player aggregate row.
type PlayerStats struct {
	bun.BaseModel `bun:"table:player_stats"`

	PlayerID    string    `bun:"player_id,pk"`
	Completions int       `bun:"completions,notnull,default:0"`
	TotalScore  int       `bun:"total_score,notnull,default:0"`
	BestScore   int       `bun:"best_score,notnull,default:0"`
	BestStreak  int       `bun:"best_streak,notnull,default:0"`
	Coins       int       `bun:"coins,notnull,default:0"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// CompletionRecord is one finished run.
type CompletionRecord struct {
	bun.BaseModel `bun:"table:completions"`

	ID                int64     `bun:"id,pk,autoincrement"`
	RunID             string    `bun:"run_id,nullzero"`
	PlayerID          string    `bun:"player_id,notnull"`
	Mode              string    `bun:"mode,notnull"`
	Category          string    `bun:"category"`
	Score             int       `bun:"score,notnull"`
	QuestionsAnswered int       `bun:"questions_answered,notnull"`
	CorrectAnswers    int       `bun:"correct_answers,notnull"`
	TimeTakenSec      int       `bun:"time_taken_sec,notnull"`
	Streak            int       `bun:"streak,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PlayerAchievement marks an unlocked achievement.
type PlayerAchievement struct {
	bun.BaseModel `bun:"table:player_achievements"`

	PlayerID      string    `bun:"player_id,pk"`
	AchievementID string    `bun:"achievement_id,pk"`
	UnlockedAt    time.Time `bun:"unlocked_at,notnull,default:current_timestamp"`
}

// StatsStore persists completions, coin balances and achievements with bun.
type StatsStore struct {
	db *bun.DB
}

func NewStatsStore(db *bun.DB) *StatsStore {
	return &StatsStore{db: db}
}

// RecordCompletion stores c and updates the player's aggregates. A completion
// whose (RunID, PlayerID) is already stored changes nothing.
func (s *StatsStore) RecordCompletion(ctx context.Context, c domain.Completion) ([]string, error) {
	if c.PlayerID == "" {
		return nil, fmt.Errorf("record completion: %w", domain.ErrInvalidPlayer)
	}

	var earned []string
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		player := PlayerStats{PlayerID: c.PlayerID}
		err := tx.NewSelect().Model(&player).WherePK().For("UPDATE").Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load player stats: %w", err)
		}

		record := &CompletionRecord{
			RunID:             c.RunID,
			PlayerID:          c.PlayerID,
			Mode:              string(c.Mode),
			Category:          c.Category,
			Score:             c.Score,
			QuestionsAnswered: c.QuestionsAnswered,
			CorrectAnswers:    c.CorrectAnswers,
			TimeTakenSec:      c.TimeTakenSec,
			Streak:            c.Streak,
		}
		res, err := tx.NewInsert().Model(record).
			On("CONFLICT (run_id, player_id) DO NOTHING").
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// already recorded by an earlier delivery
			return nil
		}

		var unlocked []string
		if err := tx.NewSelect().Model((*PlayerAchievement)(nil)).
			Column("achievement_id").
			Where("player_id = ?", c.PlayerID).
			Scan(ctx, &unlocked); err != nil {
			return fmt.Errorf("load achievements: %w", err)
		}
		history := stats.History{
			Completions: player.Completions,
			TotalScore:  player.TotalScore,
			Unlocked:    make(map[string]bool, len(unlocked)),
		}
		for _, id := range unlocked {
			history.Unlocked[id] = true
		}
		earned = stats.Evaluate(c, history)

		player.Completions++
		player.TotalScore += c.Score
		player.BestScore = max(player.BestScore, c.Score)
		player.BestStreak = max(player.BestStreak, c.Streak)
		player.UpdatedAt = time.Now()
		if _, err := tx.NewInsert().Model(&player).
			On("CONFLICT (player_id) DO UPDATE").
			Set("completions = EXCLUDED.completions").
			Set("total_score = EXCLUDED.total_score").
			Set("best_score = EXCLUDED.best_score").
			Set("best_streak = EXCLUDED.best_streak").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert player stats: %w", err)
		}

		if len(earned) == 0 {
			return nil
		}
		rows := make([]PlayerAchievement, 0, len(earned))
		for _, id := range earned {
			rows = append(rows, PlayerAchievement{PlayerID: c.PlayerID, AchievementID: id, UnlockedAt: time.Now()})
		}
		if _, err := tx.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert achievements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return earned, nil
}

func (s *StatsStore) UpdateCoins(ctx context.Context, playerID string, balance int) error {
	if playerID == "" {
		return fmt.Errorf("update coins: %w", domain.ErrInvalidPlayer)
	}
	player := &PlayerStats{PlayerID: playerID, Coins: balance, UpdatedAt: time.Now()}
	_, err := s.db.NewInsert().Model(player).
		On("CONFLICT (player_id) DO UPDATE").
		Set("coins = EXCLUDED.coins").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update coins: %w", err)
	}
	return nil
}

// Player loads the aggregate row for playerID.
func (s *StatsStore) Player(ctx context.Context, playerID string) (PlayerStats, error) {
	player := PlayerStats{PlayerID: playerID}
	if err := s.db.NewSelect().Model(&player).WherePK().Scan(ctx); err != nil {
		return PlayerStats{}, fmt.Errorf("load player stats: %w", err)
	}
	return player, nil
}
