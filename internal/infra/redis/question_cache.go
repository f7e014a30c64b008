package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
)

// QuestionCache stores generated question sets as JSON under
// arena:questions:{request key} and falls back to the wrapped generator on a miss.
// Redis failures degrade to calling the generator directly.
type QuestionCache struct {
	client redis.UniversalClient
	next   content.Generator
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client redis.UniversalClient, next content.Generator, ttl time.Duration, logger *slog.Logger) *QuestionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Generate(ctx context.Context, req content.Request) ([]domain.Question, error) {
	key := c.key(req)
	if qs, ok := c.get(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if qs, ok := c.get(ctx, key); ok {
			return qs, nil
		}

		qs, err := c.next.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, qs)
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) get(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "question cache: get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) set(ctx context.Context, key string, qs []domain.Question) {
	if c.ttl <= 0 || len(qs) == 0 {
		return
	}
	raw, err := json.Marshal(qs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
		c.logger.WarnContext(ctx, "question cache: set failed", "key", key, "error", err)
	}
}

func (c *QuestionCache) key(req content.Request) string {
	return fmt.Sprintf("arena:questions:%s", req.Key())
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
