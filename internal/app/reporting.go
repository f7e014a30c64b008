package app

import (
	"context"
	"log/slog"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/stats"
)

// Achievements is the achievements-unlocked payload.
type Achievements struct {
	Achievements []string `json:"achievements"`
}

// SubscribeReporting forwards completions and coin balances from the bus to
// reporter and pushes newly unlocked achievements to the player.
func SubscribeReporting(bus *event.Bus, reporter stats.Reporter, notifier Notifier, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	bus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		c := e.(domain.EventSessionCompleted).Completion
		earned, err := reporter.RecordCompletion(ctx, c)
		if err != nil {
			logger.ErrorContext(ctx, "record completion failed", "player_id", c.PlayerID, "mode", c.Mode, "error", err)
			return err
		}
		if len(earned) > 0 {
			notifier.Notify(c.PlayerID, domain.MsgAchievements, Achievements{Achievements: earned})
		}
		return nil
	})
	bus.Subscribe(domain.EventNameCoinsUpdated, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventCoinsUpdated)
		if err := reporter.UpdateCoins(ctx, ev.PlayerID, ev.Balance); err != nil {
			logger.ErrorContext(ctx, "update coins failed", "player_id", ev.PlayerID, "error", err)
			return err
		}
		return nil
	})
}
