package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/event"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/timer"
)

type Config struct {
	StartingCoins int
	RevealSeconds int
	TickInterval  time.Duration
}

// Manager keeps at most one running session per player.
type Manager struct {
	cfg      Config
	content  content.Generator
	catalog  *powerup.Catalog
	notifier Notifier
	events   event.Publisher
	tickers  timer.Factory
	clock    func() time.Time
	newID    func() string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	runners map[string]*Runner
}

type Option func(*Manager)

func WithTickerFactory(f timer.Factory) Option {
	return func(m *Manager) { m.tickers = f }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.clock = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(cfg Config, gen content.Generator, catalog *powerup.Catalog, notifier Notifier, events event.Publisher, opts ...Option) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		content:  gen,
		catalog:  catalog,
		notifier: notifier,
		events:   events,
		tickers:  timer.NewTicker,
		clock:    time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		runners:  make(map[string]*Runner),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.events == nil {
		m.events = nopPublisher{}
	}
	return m
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, any) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, event.Event) {}

// StartSession fetches content and starts a run for playerID, replacing any
// run the player still has. The session stays in Loading while content is
// generated; a content failure returns domain.ErrContentUnavailable.
func (m *Manager) StartSession(ctx context.Context, playerID string, mode domain.Mode, req content.Request) (domain.SessionSnapshot, error) {
	if strings.TrimSpace(playerID) == "" {
		return domain.SessionSnapshot{}, domain.ErrInvalidPlayer
	}
	if prev, ok := m.lookup(playerID); ok {
		_ = prev.Quit(ctx)
	}

	s := New(Params{
		ID:            m.newID(),
		PlayerID:      playerID,
		Mode:          mode,
		Category:      strings.ToLower(strings.TrimSpace(req.Subject)),
		Catalog:       m.catalog,
		StartingCoins: m.cfg.StartingCoins,
		RevealSeconds: m.cfg.RevealSeconds,
		Clock:         m.clock,
	})
	s.MarkLoading()
	m.notifier.Notify(playerID, domain.MsgSessionState, s.Snapshot())

	req.Mode = mode
	questions, err := content.Load(ctx, m.content, req)
	if err == nil {
		err = s.Start(questions)
	}
	if err != nil {
		s.Abort()
		m.logger.WarnContext(ctx, "session start failed", "player_id", playerID, "mode", mode, "error", err)
		m.notifier.Notify(playerID, domain.MsgSessionState, s.Snapshot())
		return domain.SessionSnapshot{}, err
	}

	snap := s.Snapshot()
	r := newRunner(s, m.tickers(m.cfg.TickInterval), m.notifier, m.events, m.logger)
	r.onExit = m.remove

	m.mu.Lock()
	m.runners[playerID] = r
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		r.Run(m.ctx)
	}()

	m.events.Publish(ctx, domain.EventSessionStarted{SessionID: s.ID(), PlayerID: playerID, Mode: mode})
	m.logger.InfoContext(ctx, "session started", "session_id", s.ID(), "player_id", playerID, "mode", mode, "questions", len(questions))
	return snap, nil
}

func (m *Manager) SubmitAnswer(ctx context.Context, playerID string, selected int) (domain.Answer, bool, error) {
	r, err := m.runner(playerID)
	if err != nil {
		return domain.Answer{}, false, err
	}
	return r.SubmitAnswer(ctx, selected)
}

func (m *Manager) UsePowerUp(ctx context.Context, playerID string, kind powerup.Kind) (powerup.Effect, error) {
	r, err := m.runner(playerID)
	if err != nil {
		return powerup.Effect{}, err
	}
	return r.UsePowerUp(ctx, kind)
}

func (m *Manager) Advance(ctx context.Context, playerID string) (bool, error) {
	r, err := m.runner(playerID)
	if err != nil {
		return false, err
	}
	return r.Advance(ctx)
}

func (m *Manager) Snapshot(ctx context.Context, playerID string) (domain.SessionSnapshot, error) {
	r, err := m.runner(playerID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return r.Snapshot(ctx)
}

// Quit abandons the player's run. Unknown players are a no-op.
func (m *Manager) Quit(ctx context.Context, playerID string) error {
	r, ok := m.lookup(playerID)
	if !ok {
		return nil
	}
	if err := r.Quit(ctx); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	<-r.Done()
	return nil
}

// Active returns the number of running sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runners)
}

// Shutdown stops every runner and waits for them to exit.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) runner(playerID string) (*Runner, error) {
	r, ok := m.lookup(playerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return r, nil
}

func (m *Manager) lookup(playerID string) (*Runner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[playerID]
	return r, ok
}

func (m *Manager) remove(r *Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.runners[r.session.PlayerID()]; ok && cur == r {
		delete(m.runners, r.session.PlayerID())
	}
}
