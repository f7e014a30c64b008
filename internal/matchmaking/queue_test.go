package matchmaking

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/domain"
)

func entry(id, category, difficulty string) domain.QueueEntry {
	return domain.QueueEntry{PlayerID: id, PlayerName: id, Category: category, Difficulty: difficulty}
}

func TestQueueEnqueue(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T, q *Queue)
		enqueue domain.QueueEntry
		assert  func(t *testing.T, q *Queue, p *Pairing, err error)
	}{
		"first player waits": {
			enqueue: entry("a", "science", "easy"),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				require.NoError(t, err)
				assert.Nil(t, p)
				assert.Equal(t, 1, q.Len())
			},
		},
		"compatible players are paired and removed": {
			arrange: func(t *testing.T, q *Queue) {
				_, err := q.Enqueue(entry("a", "science", "easy"))
				require.NoError(t, err)
			},
			enqueue: entry("b", "science", "easy"),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, "a", p.First.PlayerID)
				assert.Equal(t, "b", p.Second.PlayerID)
				assert.Equal(t, 0, q.Len())
			},
		},
		"different difficulty does not match": {
			arrange: func(t *testing.T, q *Queue) {
				_, err := q.Enqueue(entry("a", "science", "easy"))
				require.NoError(t, err)
			},
			enqueue: entry("b", "science", "hard"),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				require.NoError(t, err)
				assert.Nil(t, p)
				assert.Equal(t, 2, q.Len())
			},
		},
		"category and difficulty are compared exactly": {
			arrange: func(t *testing.T, q *Queue) {
				_, err := q.Enqueue(entry("a", "science", "easy"))
				require.NoError(t, err)
			},
			enqueue: entry("b", "Science", "easy "),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				require.NoError(t, err)
				assert.Nil(t, p)
				assert.Equal(t, 2, q.Len())
			},
		},
		"oldest compatible player is matched first": {
			arrange: func(t *testing.T, q *Queue) {
				for _, e := range []domain.QueueEntry{
					entry("a", "math", "easy"),
					entry("b", "science", "easy"),
					entry("c", "science", "hard"),
				} {
					_, err := q.Enqueue(e)
					require.NoError(t, err)
				}
			},
			enqueue: entry("d", "science", "easy"),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, "b", p.First.PlayerID)
				pending := q.Pending()
				require.Len(t, pending, 2)
				assert.Equal(t, "a", pending[0].PlayerID)
				assert.Equal(t, "c", pending[1].PlayerID)
			},
		},
		"duplicate enqueue is rejected": {
			arrange: func(t *testing.T, q *Queue) {
				_, err := q.Enqueue(entry("a", "science", "easy"))
				require.NoError(t, err)
			},
			enqueue: entry("a", "math", "hard"),
			assert: func(t *testing.T, q *Queue, p *Pairing, err error) {
				assert.ErrorIs(t, err, domain.ErrAlreadyQueued)
				assert.Nil(t, p)
				assert.Equal(t, 1, q.Len())
			},
		},
		"missing player id is rejected": {
			enqueue: entry(" ", "science", "easy"),
			assert: func(t *testing.T, q *Queue, _ *Pairing, err error) {
				assert.ErrorIs(t, err, domain.ErrInvalidQueueEntry)
				assert.Equal(t, 0, q.Len())
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
			q := NewQueueWithClock(func() time.Time { return now })
			if tc.arrange != nil {
				tc.arrange(t, q)
			}
			p, err := q.Enqueue(tc.enqueue)
			tc.assert(t, q, p, err)
		})
	}
}

func TestQueueLeave(t *testing.T) {
	q := NewQueue()
	_, err := q.Enqueue(entry("a", "science", "easy"))
	require.NoError(t, err)

	assert.True(t, q.Leave("a"))
	assert.False(t, q.Leave("a"))
	q.OnDisconnect("ghost")
	assert.Empty(t, q.Pending())

	p, err := q.Enqueue(entry("b", "science", "easy"))
	require.NoError(t, err)
	assert.Nil(t, p, "a left the queue and must not be matched")
}

func TestQueueConcurrentEnqueueNeverDoublePairs(t *testing.T) {
	q := NewQueue()
	const players = 100

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paired   = map[string]int{}
		pairings int
	)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := q.Enqueue(entry(fmt.Sprintf("p%d", i), "science", "easy"))
			if err != nil || p == nil {
				return
			}
			mu.Lock()
			pairings++
			paired[p.First.PlayerID]++
			paired[p.Second.PlayerID]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, players/2, pairings)
	assert.Equal(t, 0, q.Len())
	for id, n := range paired {
		assert.Equal(t, 1, n, id)
	}
}
