package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL           string `yaml:"ttl"`
		RevealDelay   string `yaml:"reveal_delay"`
		TickInterval  string `yaml:"tick_interval"`
		StartingCoins int    `yaml:"starting_coins"`
		QuestionCount int    `yaml:"question_count"`
	} `yaml:"quiz"`
	PowerUps struct {
		Costs    map[string]int `yaml:"costs"`
		MaxLives int            `yaml:"max_lives"`
	} `yaml:"powerups"`
	Content struct {
		Driver  string `yaml:"driver"`
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"content"`
	Stats struct {
		Driver     string `yaml:"driver"`
		URL        string `yaml:"url"`
		Timeout    string `yaml:"timeout"`
		AMQPURL    string `yaml:"amqp_url"`
		Queue      string `yaml:"queue"`
		MaxElapsed string `yaml:"max_elapsed"`
	} `yaml:"stats"`
}

// Load reads YAML config from path and fills in defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Quiz.StartingCoins == 0 {
		c.Quiz.StartingCoins = 100
	}
	if c.Quiz.QuestionCount == 0 {
		c.Quiz.QuestionCount = 10
	}
	if c.Content.Driver == "" {
		c.Content.Driver = "static"
	}
	if c.Stats.Driver == "" {
		c.Stats.Driver = "memory"
	}
	if c.Stats.Queue == "" {
		c.Stats.Queue = "arena.completions"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
