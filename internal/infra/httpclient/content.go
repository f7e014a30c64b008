package httpclient

import (
	"context"
	"fmt"
	"time"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
)

// ContentClient calls an external generate-quiz endpoint.
type ContentClient struct {
	client
}

func NewContentClient(baseURL string, timeout time.Duration) *ContentClient {
	return &ContentClient{client: newClient(baseURL, timeout)}
}

type generateQuizResponse struct {
	Questions []domain.Question `json:"questions"`
}

func (c *ContentClient) Generate(ctx context.Context, req content.Request) ([]domain.Question, error) {
	req = req.Normalize()
	var resp generateQuizResponse
	if err := c.postJSON(ctx, "/generate-quiz", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	return content.ForMode(req.Mode, resp.Questions), nil
}
