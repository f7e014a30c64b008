package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"quiz-arena-service/internal/domain"
)

// Retrying wraps a Reporter with exponential backoff. Validation errors are
// not retried.
type Retrying struct {
	next       Reporter
	initial    time.Duration
	maxElapsed time.Duration
	logger     *slog.Logger
}

func NewRetrying(next Reporter, initial, maxElapsed time.Duration, logger *slog.Logger) *Retrying {
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: next, initial: initial, maxElapsed: maxElapsed, logger: logger}
}

func (r *Retrying) RecordCompletion(ctx context.Context, c domain.Completion) ([]string, error) {
	var achievements []string
	err := r.retry(ctx, "record completion", func() error {
		var err error
		achievements, err = r.next.RecordCompletion(ctx, c)
		return err
	})
	return achievements, err
}

func (r *Retrying) UpdateCoins(ctx context.Context, playerID string, balance int) error {
	return r.retry(ctx, "update coins", func() error {
		return r.next.UpdateCoins(ctx, playerID, balance)
	})
}

func (r *Retrying) retry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxElapsedTime = r.maxElapsed

	operation := func() error {
		err := fn()
		if err != nil && domain.KindOf(err) == domain.KindValidation {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.WarnContext(ctx, "stats: retrying", "op", op, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		if domain.KindOf(err) == domain.KindValidation {
			return err
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrStatsUnavailable, op, err)
	}
	return nil
}
