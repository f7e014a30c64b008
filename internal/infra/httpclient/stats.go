package httpclient

import (
	"context"
	"time"

	"quiz-arena-service/internal/domain"
)

// StatsClient reports completions and coin balances to an external stats
// service. Wrap it in stats.Retrying for backoff.
type StatsClient struct {
	client
}

func NewStatsClient(baseURL string, timeout time.Duration) *StatsClient {
	return &StatsClient{client: newClient(baseURL, timeout)}
}

type recordCompletionRequest struct {
	RunID             string      `json:"runId,omitempty"`
	PlayerID          string      `json:"playerId"`
	Mode              domain.Mode `json:"mode"`
	Category          string      `json:"category"`
	Score             int         `json:"score"`
	QuestionsAnswered int         `json:"questionsAnswered"`
	CorrectAnswers    int         `json:"correctAnswers"`
	TimeTakenSec      int         `json:"timeTakenSec"`
	Streak            int         `json:"streak"`
}

type recordCompletionResponse struct {
	NewAchievements []string `json:"newAchievements"`
}

type updateCoinsRequest struct {
	PlayerID   string `json:"playerId"`
	NewBalance int    `json:"newBalance"`
}

func (c *StatsClient) RecordCompletion(ctx context.Context, comp domain.Completion) ([]string, error) {
	var resp recordCompletionResponse
	err := c.postJSON(ctx, "/record-completion", recordCompletionRequest{
		RunID:             comp.RunID,
		PlayerID:          comp.PlayerID,
		Mode:              comp.Mode,
		Category:          comp.Category,
		Score:             comp.Score,
		QuestionsAnswered: comp.QuestionsAnswered,
		CorrectAnswers:    comp.CorrectAnswers,
		TimeTakenSec:      comp.TimeTakenSec,
		Streak:            comp.Streak,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.NewAchievements, nil
}

func (c *StatsClient) UpdateCoins(ctx context.Context, playerID string, balance int) error {
	return c.postJSON(ctx, "/update-coins", updateCoinsRequest{PlayerID: playerID, NewBalance: balance}, nil)
}
