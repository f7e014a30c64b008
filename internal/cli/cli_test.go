package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/infra/memory"
	"quiz-arena-service/internal/powerup"
	"quiz-arena-service/internal/stats"
)

func TestNewCatalogAppliesConfiguredCosts(t *testing.T) {
	cfg := config.Config{}
	cfg.PowerUps.Costs = map[string]int{"fifty-fifty": 30}
	cfg.PowerUps.MaxLives = 4

	catalog, err := newCatalog(cfg)
	require.NoError(t, err)
	cost, ok := catalog.Cost(powerup.FiftyFifty)
	require.True(t, ok)
	assert.Equal(t, 30, cost)

	cfg.PowerUps.Costs = map[string]int{"warp": 1}
	_, err = newCatalog(cfg)
	assert.Error(t, err)
}

func TestDriverSelection(t *testing.T) {
	tests := map[string]struct {
		arrange func(cfg *config.Config)
		assert  func(t *testing.T, cfg config.Config)
	}{
		"memory stats store": {
			arrange: func(cfg *config.Config) { cfg.Stats.Driver = "memory" },
			assert: func(t *testing.T, cfg config.Config) {
				r, err := newReporter(cfg, &infra{}, nil)
				require.NoError(t, err)
				assert.IsType(t, &memory.StatsStore{}, r)
			},
		},
		"http stats client is retried": {
			arrange: func(cfg *config.Config) {
				cfg.Stats.Driver = "http"
				cfg.Stats.URL = "http://stats.local"
			},
			assert: func(t *testing.T, cfg config.Config) {
				r, err := newReporter(cfg, &infra{}, nil)
				require.NoError(t, err)
				assert.IsType(t, &stats.Retrying{}, r)
			},
		},
		"postgres stats store needs a database": {
			arrange: func(cfg *config.Config) { cfg.Stats.Driver = "postgres" },
			assert: func(t *testing.T, cfg config.Config) {
				_, err := newReporter(cfg, &infra{}, nil)
				assert.ErrorContains(t, err, "postgres.url")
			},
		},
		"static content is cached in memory": {
			arrange: func(cfg *config.Config) { cfg.Content.Driver = "static" },
			assert: func(t *testing.T, cfg config.Config) {
				g, err := newContent(cfg, &infra{}, nil)
				require.NoError(t, err)
				assert.IsType(t, &memory.QuestionCache{}, g)
			},
		},
		"unknown content driver": {
			arrange: func(cfg *config.Config) { cfg.Content.Driver = "llm" },
			assert: func(t *testing.T, cfg config.Config) {
				_, err := newContent(cfg, &infra{}, nil)
				assert.ErrorContains(t, err, `unknown content driver "llm"`)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Config{}
			tc.arrange(&cfg)
			tc.assert(t, cfg)
		})
	}
}
