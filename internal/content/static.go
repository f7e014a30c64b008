package content

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// Static serves questions from a seeded in-process bank.
type Static struct {
	mu  sync.Mutex
	rnd *rand.Rand
	all []domain.Question
}

// NewStatic builds a bank from questions, or from the seeded set when empty.
func NewStatic(questions []domain.Question) *Static {
	if len(questions) == 0 {
		questions = SeededQuestions()
	}
	return &Static{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		all: questions,
	}
}

// WithSeed makes shuffling deterministic.
func (s *Static) WithSeed(seed int64) *Static {
	s.rnd = rand.New(rand.NewSource(seed))
	return s
}

// Generate picks up to req.Count questions matching subject and difficulty.
// Empty or "general" subject and empty difficulty match everything; when the
// exact match is too small the difficulty filter is relaxed.
func (s *Static) Generate(ctx context.Context, req Request) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req = req.Normalize()

	pool := s.filter(req.Subject, req.Difficulty)
	if len(pool) < req.Count && req.Difficulty != "" {
		pool = s.filter(req.Subject, "")
	}
	if len(pool) == 0 {
		return nil, domain.ErrContentUnavailable
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.mu.Unlock()

	if len(pool) > req.Count {
		pool = pool[:req.Count]
	}
	return ForMode(req.Mode, pool), nil
}

func (s *Static) filter(subject, difficulty string) []domain.Question {
	out := make([]domain.Question, 0, len(s.all))
	for _, q := range s.all {
		if subject != "" && subject != "general" && subject != q.Category {
			continue
		}
		if difficulty != "" && difficulty != q.Difficulty {
			continue
		}
		out = append(out, q)
	}
	return out
}
