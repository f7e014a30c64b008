package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"quiz-arena-service/internal/domain"
)

const (
	TypeRecordCompletion = "record-completion"
	TypeUpdateCoins      = "update-coins"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// CompletionPublisher is a stats.Reporter that hands completions and coin
// balances to a durable queue for a downstream stats worker. Achievements are
// computed downstream, so RecordCompletion never reports any.
type CompletionPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    Channel
	queue string
	clock func() time.Time
}

type completionMessage struct {
	domain.Completion
	OccurredAt time.Time `json:"occurredAt"`
}

type coinsMessage struct {
	PlayerID   string    `json:"playerId"`
	NewBalance int       `json:"newBalance"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Dial connects to the broker at url and declares queue.
func Dial(url, queue string) (*CompletionPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewCompletionPublisher(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewCompletionPublisher(ch Channel, queue string) (*CompletionPublisher, error) {
	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &CompletionPublisher{ch: ch, queue: q.Name, clock: time.Now}, nil
}

func (p *CompletionPublisher) RecordCompletion(ctx context.Context, c domain.Completion) ([]string, error) {
	if c.PlayerID == "" {
		return nil, fmt.Errorf("record completion: %w", domain.ErrInvalidPlayer)
	}
	return nil, p.publish(ctx, TypeRecordCompletion, completionMessage{Completion: c, OccurredAt: p.clock()})
}

func (p *CompletionPublisher) UpdateCoins(ctx context.Context, playerID string, balance int) error {
	if playerID == "" {
		return fmt.Errorf("update coins: %w", domain.ErrInvalidPlayer)
	}
	return p.publish(ctx, TypeUpdateCoins, coinsMessage{PlayerID: playerID, NewBalance: balance, OccurredAt: p.clock()})
}

func (p *CompletionPublisher) publish(ctx context.Context, msgType string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false, amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         msgType,
			Timestamp:    p.clock(),
			Body:         payload,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msgType, err)
	}
	return nil
}

func (p *CompletionPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
