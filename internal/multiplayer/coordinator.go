package multiplayer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/matchmaking"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/timer"
)

// RoomRegistry records live rooms outside the process (in-memory, Redis, etc).
type RoomRegistry interface {
	Register(ctx context.Context, roomID string, players [2]string) error
	Unregister(ctx context.Context, roomID string) error
}

type Config struct {
	StartingCoins int
	RevealSeconds int
	TickInterval  time.Duration
}

// Coordinator creates rooms for pairings and routes player commands to them.
type Coordinator struct {
	cfg      Config
	catalog  *powerup.Catalog
	notifier Notifier
	events   event.Publisher
	registry RoomRegistry
	tickers  timer.Factory
	clock    func() time.Time
	newID    func() string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	rooms    map[string]*Room
	byPlayer map[string]string
}

type Option func(*Coordinator)

func WithTickerFactory(f timer.Factory) Option {
	return func(c *Coordinator) { c.tickers = f }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.clock = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithRegistry(r RoomRegistry) Option {
	return func(c *Coordinator) { c.registry = r }
}

func NewCoordinator(cfg Config, catalog *powerup.Catalog, notifier Notifier, events event.Publisher, opts ...Option) *Coordinator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:      cfg,
		catalog:  catalog,
		notifier: notifier,
		events:   events,
		tickers:  timer.NewTicker,
		clock:    time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = powerup.NewCatalog(powerup.Config{})
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.events == nil {
		c.events = nopPublisher{}
	}
	return c
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, any) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, event.Event) {}

// CreateRoom starts a battle for pairing and sends game-found to both players.
func (c *Coordinator) CreateRoom(ctx context.Context, pairing matchmaking.Pairing, questions []domain.Question) (string, error) {
	if err := domain.ValidateQuestions(questions); err != nil {
		return "", err
	}

	room := newRoom(roomParams{
		id:         c.newID(),
		category:   pairing.First.Category,
		difficulty: pairing.First.Difficulty,
		players: [2]Player{
			{ID: pairing.First.PlayerID, Name: pairing.First.PlayerName},
			{ID: pairing.Second.PlayerID, Name: pairing.Second.PlayerName},
		},
		questions:     questions,
		startingCoins: c.cfg.StartingCoins,
		revealSeconds: c.cfg.RevealSeconds,
		catalog:       c.catalog,
		clock:         c.clock,
		ticker:        c.tickers(c.cfg.TickInterval),
		notifier:      c.notifier,
		events:        c.events,
		logger:        c.logger,
	})
	room.onExit = c.remove
	ids := room.PlayerIDs()

	c.mu.Lock()
	for _, id := range ids {
		if _, busy := c.byPlayer[id]; busy {
			c.mu.Unlock()
			room.ticker.Stop()
			return "", domain.ErrAlreadyInRoom
		}
	}
	c.rooms[room.ID()] = room
	for _, id := range ids {
		c.byPlayer[id] = room.ID()
	}
	c.mu.Unlock()

	if c.registry != nil {
		if err := c.registry.Register(ctx, room.ID(), ids); err != nil {
			c.logger.WarnContext(ctx, "room registry unavailable", "room_id", room.ID(), "error", err)
		}
	}

	// game-found goes out before the room goroutine can emit anything else
	for i, id := range ids {
		c.notifier.Notify(id, domain.MsgGameFound, room.gameFound(i))
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		room.Run(c.ctx)
	}()

	c.events.Publish(ctx, domain.EventMatchCreated{RoomID: room.ID(), Players: ids})
	c.logger.InfoContext(ctx, "room created", "room_id", room.ID(), "players", ids[:], "questions", len(questions))
	return room.ID(), nil
}

// SubmitAnswer forwards an answer. An empty roomID resolves the player's room.
// Ignored answers return false without error.
func (c *Coordinator) SubmitAnswer(ctx context.Context, roomID, playerID string, questionIndex, selected, timeRemaining int) (bool, error) {
	room, err := c.room(roomID, playerID)
	if err != nil {
		return false, err
	}
	reply := make(chan submitResult, 1)
	cmd := submitCmd{
		playerID:      playerID,
		questionIndex: questionIndex,
		selected:      selected,
		timeRemaining: timeRemaining,
		reply:         reply,
	}
	if err := room.send(ctx, cmd); err != nil {
		return false, err
	}
	res := <-reply
	return res.accepted, res.err
}

func (c *Coordinator) UsePowerUp(ctx context.Context, roomID, playerID string, kind powerup.Kind) (powerup.Effect, error) {
	room, err := c.room(roomID, playerID)
	if err != nil {
		return powerup.Effect{}, err
	}
	reply := make(chan powerUpResult, 1)
	if err := room.send(ctx, powerUpCmd{playerID: playerID, kind: kind, reply: reply}); err != nil {
		return powerup.Effect{}, err
	}
	res := <-reply
	return res.effect, res.err
}

// Disconnect finishes the player's room in favour of the opponent. Players
// without a room are ignored.
func (c *Coordinator) Disconnect(ctx context.Context, playerID string) {
	room, err := c.room("", playerID)
	if err != nil {
		return
	}
	reply := make(chan struct{})
	if err := room.send(ctx, disconnectCmd{playerID: playerID, reply: reply}); err != nil {
		return
	}
	<-reply
}

func (c *Coordinator) Snapshot(ctx context.Context, roomID string) (Snapshot, error) {
	room, err := c.room(roomID, "")
	if err != nil {
		return Snapshot{}, err
	}
	reply := make(chan Snapshot, 1)
	if err := room.send(ctx, snapshotCmd{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	return <-reply, nil
}

// RoomOf returns the id of the room playerID is in.
func (c *Coordinator) RoomOf(playerID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byPlayer[playerID]
	return id, ok
}

// Active returns the number of live rooms.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// Shutdown stops all rooms and waits for them to exit.
func (c *Coordinator) Shutdown() {
	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) room(roomID, playerID string) (*Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if roomID == "" {
		id, ok := c.byPlayer[playerID]
		if !ok {
			return nil, domain.ErrRoomNotFound
		}
		roomID = id
	}
	room, ok := c.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (c *Coordinator) remove(room *Room) {
	if c.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.registry.Unregister(ctx, room.ID()); err != nil {
			c.logger.Warn("room registry cleanup failed", "room_id", room.ID(), "error", err)
		}
		cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.rooms[room.ID()]; ok && cur == room {
		delete(c.rooms, room.ID())
	}
	for _, id := range room.PlayerIDs() {
		if c.byPlayer[id] == room.ID() {
			delete(c.byPlayer, id)
		}
	}
}

// IsRecoverable reports lookup misses that callers treat as already-left.
func IsRecoverable(err error) bool {
	return errors.Is(err, domain.ErrRoomNotFound) || errors.Is(err, domain.ErrPlayerNotInRoom)
}
