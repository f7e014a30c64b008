package stats

import (
	"context"

	"quiz-arena-service/internal/domain"
)

// Reporter persists player statistics. Implementations live in infra.
type Reporter interface {
	// RecordCompletion stores a finished run and returns newly unlocked achievement ids.
	RecordCompletion(ctx context.Context, c domain.Completion) ([]string, error)
	UpdateCoins(ctx context.Context, playerID string, balance int) error
}

const (
	AchievementFirstQuiz    = "first-quiz"
	AchievementPerfectScore = "perfect-score"
	AchievementStreak5      = "streak-5"
	AchievementStreak10     = "streak-10"
	AchievementSurvivor     = "survivor"
	AchievementCenturion    = "centurion"
)

// History is what a store knows about a player before the new completion.
type History struct {
	Completions int
	TotalScore  int
	Unlocked    map[string]bool
}

// Evaluate returns the achievements c unlocks that are not in h.Unlocked.
func Evaluate(c domain.Completion, h History) []string {
	var earned []string
	add := func(id string, ok bool) {
		if ok && !h.Unlocked[id] {
			earned = append(earned, id)
		}
	}
	add(AchievementFirstQuiz, h.Completions == 0)
	add(AchievementPerfectScore, c.QuestionsAnswered > 0 && c.CorrectAnswers == c.QuestionsAnswered)
	add(AchievementStreak5, c.Streak >= 5)
	add(AchievementStreak10, c.Streak >= 10)
	add(AchievementSurvivor, c.Mode == domain.ModeSurvival && c.CorrectAnswers >= 10)
	add(AchievementCenturion, h.Completions+1 >= 100)
	return earned
}
