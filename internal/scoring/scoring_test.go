package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-arena-service/internal/domain"
)

func TestScoreAnswer(t *testing.T) {
	q := domain.Question{ID: "q1", Options: []string{"a", "b"}, CorrectAnswerIndex: 1, Points: 100}

	tests := map[string]struct {
		correct bool
		armed   bool
		streak  int
		want    Outcome
	}{
		"correct": {
			correct: true, streak: 2,
			want: Outcome{PointsAwarded: 100, NewStreak: 3},
		},
		"correct with double points": {
			correct: true, armed: true,
			want: Outcome{PointsAwarded: 200, NewStreak: 1},
		},
		"wrong resets streak and costs a life": {
			correct: false, streak: 4,
			want: Outcome{NewStreak: 0, LivesDelta: -1},
		},
		"wrong with double points still scores zero": {
			correct: false, armed: true, streak: 1,
			want: Outcome{LivesDelta: -1},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreAnswer(q, tc.correct, tc.armed, tc.streak))
		})
	}
}

func TestIsCorrect(t *testing.T) {
	q := domain.Question{ID: "q1", Options: []string{"a", "b", "c"}, CorrectAnswerIndex: 2}

	assert.True(t, IsCorrect(q, 2))
	assert.False(t, IsCorrect(q, 0))
	assert.False(t, IsCorrect(q, -1))
	assert.False(t, IsCorrect(q, 7))
}

func TestApplyLivesClampsAtZero(t *testing.T) {
	assert.Equal(t, 0, ApplyLives(0, -1))
	assert.Equal(t, 2, ApplyLives(3, -1))
	assert.Equal(t, 4, ApplyLives(3, 1))
}
