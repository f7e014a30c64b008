package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/postgres"
	pgmigrations "quiz-arena-service/internal/infra/postgres/migrations"
	infraredis "quiz-arena-service/internal/infra/redis"
	"quiz-arena-service/internal/stats"
)

func TestQuestionBankAndStatsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	bank := postgres.NewQuestionBank(pool)
	cache := infraredis.NewQuestionCache(redisClient, bank, 5*time.Minute, nil)

	req := content.Request{Subject: "geography", Difficulty: "easy", Mode: domain.ModeSpeed, Count: 3}
	questions, err := content.Load(ctx, cache, req)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	for _, q := range questions {
		assert.Equal(t, "geography", q.Category)
		assert.LessOrEqual(t, q.TimeLimitSeconds, 10)
	}
	exists, err := redisClient.Exists(ctx, "arena:questions:"+req.Key()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	_, err = content.Load(ctx, bank, content.Request{Subject: "astrology"})
	assert.ErrorIs(t, err, domain.ErrContentUnavailable)

	store := postgres.NewStatsStore(db)
	first := domain.Completion{
		RunID: "s-1", PlayerID: "u1", Mode: domain.ModeClassic, Category: "geography",
		Score: 450, QuestionsAnswered: 3, CorrectAnswers: 3, Streak: 3,
	}
	earned, err := store.RecordCompletion(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{stats.AchievementFirstQuiz, stats.AchievementPerfectScore}, earned)

	// a retried delivery of the same run is not counted again
	earned, err = store.RecordCompletion(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, earned)

	earned, err = store.RecordCompletion(ctx, domain.Completion{PlayerID: "u1", Mode: domain.ModeClassic, Score: 50, QuestionsAnswered: 3, CorrectAnswers: 1})
	require.NoError(t, err)
	assert.Empty(t, earned)

	require.NoError(t, store.UpdateCoins(ctx, "u1", 35))
	player, err := store.Player(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, player.Completions)
	assert.Equal(t, 500, player.TotalScore)
	assert.Equal(t, 450, player.BestScore)
	assert.Equal(t, 35, player.Coins)
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
