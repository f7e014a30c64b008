package scoring

import "quiz-arena-service/internal/domain"

// Outcome is the result of scoring one answer.
type Outcome struct {
	PointsAwarded int
	NewStreak     int
	LivesDelta    int
}

// IsCorrect recomputes correctness from the stored question. Client claims are never trusted.
func IsCorrect(q domain.Question, selectedIndex int) bool {
	return selectedIndex >= 0 && selectedIndex < len(q.Options) && selectedIndex == q.CorrectAnswerIndex
}

// ScoreAnswer applies points, streak and lives rules. A timeout is scored as a
// wrong answer.
func ScoreAnswer(q domain.Question, isCorrect, doublePointsArmed bool, streak int) Outcome {
	if !isCorrect {
		return Outcome{PointsAwarded: 0, NewStreak: 0, LivesDelta: -1}
	}
	points := q.Points
	if doublePointsArmed {
		points *= 2
	}
	return Outcome{PointsAwarded: points, NewStreak: streak + 1}
}

// ApplyLives adds delta to lives, never going below zero.
func ApplyLives(lives, delta int) int {
	lives += delta
	if lives < 0 {
		return 0
	}
	return lives
}
