package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-arena-service/internal/domain"
)

// DefaultCount is used when a request does not ask for a number of questions.
const DefaultCount = 10

// Request describes the question set a run needs.
type Request struct {
	Subject    string      `json:"subject"`
	Mode       domain.Mode `json:"mode"`
	Difficulty string      `json:"difficulty"`
	Count      int         `json:"count"`
}

// Normalize lowercases the keys and applies the default count.
func (r Request) Normalize() Request {
	r.Subject = strings.ToLower(strings.TrimSpace(r.Subject))
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	if r.Mode == "" {
		r.Mode = domain.ModeClassic
	}
	if r.Count <= 0 {
		r.Count = DefaultCount
	}
	return r
}

// Key identifies a request for caching.
func (r Request) Key() string {
	r = r.Normalize()
	return fmt.Sprintf("%s:%s:%s:%d", r.Subject, r.Difficulty, r.Mode, r.Count)
}

// Generator produces question sets. Implementations may be slow or fail.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]domain.Question, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) ([]domain.Question, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) ([]domain.Question, error) {
	return f(ctx, req)
}

// Load runs g and validates the result. Any failure, including an empty or
// malformed set, is reported as domain.ErrContentUnavailable so the caller can
// offer a retry.
func Load(ctx context.Context, g Generator, req Request) ([]domain.Question, error) {
	questions, err := g.Generate(ctx, req.Normalize())
	if err != nil {
		if errors.Is(err, domain.ErrContentUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	return questions, nil
}

// ForMode caps per-question time limits at the mode default for Speed runs.
func ForMode(mode domain.Mode, questions []domain.Question) []domain.Question {
	if mode != domain.ModeSpeed {
		return questions
	}
	limit := mode.DefaultTimeLimit()
	for i := range questions {
		if questions[i].TimeLimitSeconds == 0 || questions[i].TimeLimitSeconds > limit {
			questions[i].TimeLimitSeconds = limit
		}
	}
	return questions
}
