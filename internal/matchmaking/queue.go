package matchmaking

import (
	"strings"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// Pairing is two queued players with matching preferences. First waited longer.
type Pairing struct {
	First  domain.QueueEntry
	Second domain.QueueEntry
}

// Queue pairs players FIFO by exact (category, difficulty).
type Queue struct {
	mu      sync.Mutex
	entries []domain.QueueEntry
	clock   func() time.Time
}

func NewQueue() *Queue {
	return &Queue{clock: time.Now}
}

// NewQueueWithClock is test-only for deterministic timestamps.
func NewQueueWithClock(now func() time.Time) *Queue {
	return &Queue{clock: now}
}

// Enqueue matches entry against the oldest compatible waiting player. When no
// one matches the entry waits and the returned pairing is nil.
func (q *Queue) Enqueue(entry domain.QueueEntry) (*Pairing, error) {
	if strings.TrimSpace(entry.PlayerID) == "" {
		return nil, domain.ErrInvalidQueueEntry
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexLocked(entry.PlayerID) >= 0 {
		return nil, domain.ErrAlreadyQueued
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = q.clock()
	}

	for i, waiting := range q.entries {
		if waiting.Category == entry.Category && waiting.Difficulty == entry.Difficulty {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return &Pairing{First: waiting, Second: entry}, nil
		}
	}
	q.entries = append(q.entries, entry)
	return nil, nil
}

// Leave removes playerID from the queue and reports whether it was waiting.
func (q *Queue) Leave(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(playerID)
	if i < 0 {
		return false
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return true
}

// OnDisconnect is Leave for a dropped connection.
func (q *Queue) OnDisconnect(playerID string) {
	q.Leave(playerID)
}

// Pending returns the waiting entries oldest first.
func (q *Queue) Pending() []domain.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.QueueEntry(nil), q.entries...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) indexLocked(playerID string) int {
	for i, e := range q.entries {
		if e.PlayerID == playerID {
			return i
		}
	}
	return -1
}
