package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/domain"
)

func TestSeededQuestionsAreValid(t *testing.T) {
	require.NoError(t, domain.ValidateQuestions(SeededQuestions()))
}

func TestStaticGenerate(t *testing.T) {
	bank := NewStatic(nil).WithSeed(7)

	tests := map[string]struct {
		req    Request
		assert func(t *testing.T, qs []domain.Question, err error)
	}{
		"filters by category and difficulty": {
			req: Request{Subject: "Science", Difficulty: "easy", Count: 2},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				require.Len(t, qs, 2)
				for _, q := range qs {
					assert.Equal(t, "science", q.Category)
					assert.Equal(t, "easy", q.Difficulty)
				}
			},
		},
		"relaxes difficulty when too few match": {
			req: Request{Subject: "literature", Difficulty: "hard", Count: 3},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				assert.Len(t, qs, 3)
			},
		},
		"general subject mixes categories": {
			req: Request{Subject: "general", Count: 20},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				assert.Len(t, qs, 20)
			},
		},
		"speed mode caps time limits": {
			req: Request{Subject: "math", Mode: domain.ModeSpeed, Count: 3},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				for _, q := range qs {
					assert.Equal(t, 10, q.TimeLimitSeconds)
				}
			},
		},
		"unknown subject is unavailable": {
			req: Request{Subject: "astrology"},
			assert: func(t *testing.T, _ []domain.Question, err error) {
				assert.ErrorIs(t, err, domain.ErrContentUnavailable)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			qs, err := bank.Generate(context.Background(), tc.req)
			tc.assert(t, qs, err)
		})
	}
}

func TestLoadWrapsFailures(t *testing.T) {
	failing := GeneratorFunc(func(context.Context, Request) ([]domain.Question, error) {
		return nil, errors.New("upstream timeout")
	})
	_, err := Load(context.Background(), failing, Request{})
	assert.ErrorIs(t, err, domain.ErrContentUnavailable)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))

	broken := GeneratorFunc(func(context.Context, Request) ([]domain.Question, error) {
		return []domain.Question{{ID: "x", Options: []string{"only"}}}, nil
	})
	_, err = Load(context.Background(), broken, Request{})
	assert.ErrorIs(t, err, domain.ErrContentUnavailable)

	var got Request
	ok := GeneratorFunc(func(_ context.Context, req Request) ([]domain.Question, error) {
		got = req
		return SeededQuestions()[:1], nil
	})
	qs, err := Load(context.Background(), ok, Request{Subject: " Math "})
	require.NoError(t, err)
	assert.Len(t, qs, 1)
	assert.Equal(t, "math", got.Subject)
	assert.Equal(t, DefaultCount, got.Count)
}

func TestRequestKey(t *testing.T) {
	a := Request{Subject: "Math", Difficulty: "EASY", Mode: domain.ModeSpeed, Count: 5}
	b := Request{Subject: "math", Difficulty: "easy", Mode: domain.ModeSpeed, Count: 5}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Request{Subject: "math", Count: 5}.Key())
}
