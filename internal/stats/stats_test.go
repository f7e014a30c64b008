package stats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/domain"
)

func TestEvaluate(t *testing.T) {
	tests := map[string]struct {
		completion domain.Completion
		history    History
		want       []string
	}{
		"first quiz": {
			completion: domain.Completion{QuestionsAnswered: 5, CorrectAnswers: 3, Streak: 2},
			want:       []string{AchievementFirstQuiz},
		},
		"perfect run with long streak": {
			completion: domain.Completion{QuestionsAnswered: 5, CorrectAnswers: 5, Streak: 5},
			history:    History{Completions: 3},
			want:       []string{AchievementPerfectScore, AchievementStreak5},
		},
		"already unlocked achievements are not repeated": {
			completion: domain.Completion{QuestionsAnswered: 5, CorrectAnswers: 5, Streak: 5},
			history: History{Completions: 3, Unlocked: map[string]bool{
				AchievementPerfectScore: true,
				AchievementStreak5:      true,
			}},
		},
		"survivor": {
			completion: domain.Completion{Mode: domain.ModeSurvival, QuestionsAnswered: 13, CorrectAnswers: 10},
			history:    History{Completions: 1},
			want:       []string{AchievementSurvivor},
		},
		"hundredth completion": {
			completion: domain.Completion{QuestionsAnswered: 2, CorrectAnswers: 0},
			history:    History{Completions: 99},
			want:       []string{AchievementCenturion},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.completion, tc.history))
		})
	}
}

type flakyReporter struct {
	failures int
	err      error
	calls    int
}

func (f *flakyReporter) RecordCompletion(context.Context, domain.Completion) ([]string, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []string{AchievementFirstQuiz}, nil
}

func (f *flakyReporter) UpdateCoins(context.Context, string, int) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestRetrying(t *testing.T) {
	tests := map[string]struct {
		reporter *flakyReporter
		assert   func(t *testing.T, r *flakyReporter, got []string, err error)
	}{
		"transient failures are retried": {
			reporter: &flakyReporter{failures: 2, err: errors.New("connection reset")},
			assert: func(t *testing.T, r *flakyReporter, got []string, err error) {
				require.NoError(t, err)
				assert.Equal(t, []string{AchievementFirstQuiz}, got)
				assert.Equal(t, 3, r.calls)
			},
		},
		"validation errors are permanent": {
			reporter: &flakyReporter{failures: 5, err: fmt.Errorf("bad payload: %w", domain.ErrInvalidPlayer)},
			assert: func(t *testing.T, r *flakyReporter, _ []string, err error) {
				assert.ErrorIs(t, err, domain.ErrInvalidPlayer)
				assert.Equal(t, 1, r.calls)
			},
		},
		"gives up with a transport error": {
			reporter: &flakyReporter{failures: 1000, err: errors.New("down")},
			assert: func(t *testing.T, r *flakyReporter, _ []string, err error) {
				assert.ErrorIs(t, err, domain.ErrStatsUnavailable)
				assert.Equal(t, domain.KindTransport, domain.KindOf(err))
				assert.Greater(t, r.calls, 1)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewRetrying(tc.reporter, time.Millisecond, 50*time.Millisecond, nil)
			got, err := r.RecordCompletion(context.Background(), domain.Completion{PlayerID: "p1"})
			tc.assert(t, tc.reporter, got, err)
		})
	}
}

func TestRetryingUpdateCoins(t *testing.T) {
	rep := &flakyReporter{failures: 1, err: errors.New("timeout")}
	r := NewRetrying(rep, time.Millisecond, time.Second, nil)
	require.NoError(t, r.UpdateCoins(context.Background(), "p1", 40))
	assert.Equal(t, 2, rep.calls)
}
