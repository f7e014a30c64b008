package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/event"
	infraamqp "quiz-arena-service/internal/infra/amqp"
	"quiz-arena-service/internal/infra/httpclient"
	"quiz-arena-service/internal/infra/memory"
	"quiz-arena-service/internal/infra/postgres"
	infraredis "quiz-arena-service/internal/infra/redis"
	"quiz-arena-service/internal/matchmaking"
	"quiz-arena-service/internal/multiplayer"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/session"
	"quiz-arena-service/internal/stats"
	"quiz-arena-service/internal/telemetry"
	transport "quiz-arena-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz arena server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// infra holds the optional external connections.
type infra struct {
	redis   *redis.Client
	pool    *pgxpool.Pool
	db      *bun.DB
	closers []io.Closer
}

func (i *infra) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		_ = i.closers[j].Close()
	}
	if i.pool != nil {
		i.pool.Close()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	gen, err := newContent(cfg, deps, logger)
	if err != nil {
		return err
	}
	reporter, err := newReporter(cfg, deps, logger)
	if err != nil {
		return err
	}
	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}

	maxElapsed := config.TTLDuration(cfg.Stats.MaxElapsed, 30*time.Second)
	bus := event.NewBus(event.WithLogger(logger), event.WithHandlerTimeout(maxElapsed+5*time.Second))
	hub := app.NewHub(64)

	revealSeconds := int(config.TTLDuration(cfg.Quiz.RevealDelay, 3*time.Second).Seconds())
	tick := config.TTLDuration(cfg.Quiz.TickInterval, time.Second)
	sessions := session.NewManager(session.Config{
		StartingCoins: cfg.Quiz.StartingCoins,
		RevealSeconds: revealSeconds,
		TickInterval:  tick,
	}, gen, catalog, hub, bus, session.WithLogger(logger))

	var registry multiplayer.RoomRegistry = memory.NewRoomRegistry()
	if deps.redis != nil {
		registry = infraredis.NewRoomRegistry(deps.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	rooms := multiplayer.NewCoordinator(multiplayer.Config{
		StartingCoins: cfg.Quiz.StartingCoins,
		RevealSeconds: revealSeconds,
		TickInterval:  tick,
	}, catalog, hub, bus, multiplayer.WithLogger(logger), multiplayer.WithRegistry(registry))

	queue := matchmaking.NewQueue()
	arena := app.NewArenaService(app.Config{QuestionCount: cfg.Quiz.QuestionCount}, queue, sessions, rooms, gen, hub, logger)
	app.SubscribeReporting(bus, reporter, hub, logger)

	metrics := telemetry.NewMetrics()
	metrics.Subscribe(bus)
	metrics.Gauge("active_sessions", "Solo sessions currently running.", func() float64 { return float64(sessions.Active()) })
	metrics.Gauge("active_rooms", "Multiplayer rooms currently running.", func() float64 { return float64(rooms.Active()) })
	metrics.Gauge("queue_length", "Players waiting for an opponent.", func() float64 { return float64(queue.Len()) })

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/ws", transport.NewWSHandler(arena, hub, logger).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %s", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	err = eg.Wait()

	hub.Close()
	rooms.Shutdown()
	sessions.Shutdown()
	bus.Stop()
	if err != nil {
		logger.Error("server: shutdown with error", "error", err)
	}
	return err
}

func connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infra, error) {
	deps := &infra{}
	if cfg.Redis.Addr != "" {
		deps.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		telemetry.MonitorRedis(deps.redis, logger)
		deps.closers = append(deps.closers, deps.redis)
	}
	if cfg.Postgres.URL == "" {
		return deps, nil
	}

	db, err := openBun(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.db = db
	deps.closers = append(deps.closers, db)
	if err := migrateDB(ctx, db, logger); err != nil {
		deps.Close()
		return nil, err
	}

	deps.pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return deps, nil
}

// newContent picks the question source and puts the question cache in front of it.
func newContent(cfg config.Config, deps *infra, logger *slog.Logger) (content.Generator, error) {
	var gen content.Generator
	switch cfg.Content.Driver {
	case "static":
		gen = content.NewStatic(nil)
	case "postgres":
		if deps.pool == nil {
			return nil, fmt.Errorf("content driver postgres needs postgres.url")
		}
		gen = postgres.NewQuestionBank(deps.pool)
	case "http":
		gen = httpclient.NewContentClient(cfg.Content.URL, config.TTLDuration(cfg.Content.Timeout, 15*time.Second))
	default:
		return nil, fmt.Errorf("unknown content driver %q", cfg.Content.Driver)
	}

	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if deps.redis != nil {
		return infraredis.NewQuestionCache(deps.redis, gen, ttl, logger), nil
	}
	return memory.NewQuestionCache(gen, ttl), nil
}

// newReporter picks the stats store. Remote stores are retried with backoff.
func newReporter(cfg config.Config, deps *infra, logger *slog.Logger) (stats.Reporter, error) {
	var reporter stats.Reporter
	switch cfg.Stats.Driver {
	case "memory":
		return memory.NewStatsStore(), nil
	case "postgres":
		if deps.db == nil {
			return nil, fmt.Errorf("stats driver postgres needs postgres.url")
		}
		reporter = postgres.NewStatsStore(deps.db)
	case "http":
		reporter = httpclient.NewStatsClient(cfg.Stats.URL, config.TTLDuration(cfg.Stats.Timeout, 5*time.Second))
	case "amqp":
		pub, err := infraamqp.Dial(cfg.Stats.AMQPURL, cfg.Stats.Queue)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pub)
		reporter = pub
	default:
		return nil, fmt.Errorf("unknown stats driver %q", cfg.Stats.Driver)
	}
	return stats.NewRetrying(reporter, 0, config.TTLDuration(cfg.Stats.MaxElapsed, 30*time.Second), logger), nil
}

func newCatalog(cfg config.Config) (*powerup.Catalog, error) {
	costs := make(map[powerup.Kind]int, len(cfg.PowerUps.Costs))
	for raw, cost := range cfg.PowerUps.Costs {
		kind, err := powerup.ParseKind(raw)
		if err != nil {
			return nil, fmt.Errorf("powerups.costs: %q: %w", raw, err)
		}
		costs[kind] = cost
	}
	return powerup.NewCatalog(powerup.Config{Costs: costs, MaxLives: cfg.PowerUps.MaxLives}), nil
}
