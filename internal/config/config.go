package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config top-level struct
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Outbox     OutboxConfig     `yaml:"outbox"`
	Auth       AuthConfig       `yaml:"auth"`
	Render     RenderConfig     `yaml:"render"`
	Categories []CategoryConfig `yaml:"categories"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"BLOGLITE_SERVER_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type PostgresConfig struct {
	DSN          string `yaml:"dsn" env:"BLOGLITE_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"BLOGLITE_REDIS_ADDR"`
	Password string `yaml:"password" env:"BLOGLITE_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"BLOGLITE_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

type OutboxConfig struct {
	// Embedded runs the dispatcher inside the HTTP server process.
	Embedded  bool          `yaml:"embedded" env:"BLOGLITE_OUTBOX_EMBEDDED"`
	Interval  time.Duration `yaml:"interval" env:"BLOGLITE_OUTBOX_INTERVAL"`
	BatchSize int           `yaml:"batch_size"`
	// MaxRetries is a pointer so an explicit 0 (no retries) survives defaults.
	MaxRetries        *int `yaml:"max_retries"`
	MaxBatchesPerTick int  `yaml:"max_batches_per_tick"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"BLOGLITE_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RenderConfig struct {
	// Engine is "local" (goldmark) or "github".
	Engine      string        `yaml:"engine" env:"BLOGLITE_RENDER_ENGINE"`
	GithubToken string        `yaml:"github_token" env:"BLOGLITE_GITHUB_TOKEN"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type CategoryConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"BLOGLITE_LOG_LEVEL"`
}

// Load reads yaml file, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	// override DSN password from env if present
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		cfg.Postgres.DSN = cfg.Postgres.DSN + " password=" + pw
	}
	cfg.applyDefaults()
	return &cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 5 << 20
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
	if c.Outbox.Interval == 0 {
		c.Outbox.Interval = 5 * time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 10
	}
	if c.Outbox.MaxRetries == nil {
		retries := 3
		c.Outbox.MaxRetries = &retries
	}
	if c.Outbox.MaxBatchesPerTick == 0 {
		c.Outbox.MaxBatchesPerTick = 20
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Render.Engine == "" {
		c.Render.Engine = "local"
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = 10 * time.Second
	}
	if c.Render.CacheTTL == 0 {
		c.Render.CacheTTL = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if *c.Outbox.MaxRetries < 0 {
		return fmt.Errorf("outbox.max_retries must not be negative, got %d", *c.Outbox.MaxRetries)
	}
	if c.Render.Engine != "local" && c.Render.Engine != "github" {
		return fmt.Errorf("render.engine must be local or github, got %q", c.Render.Engine)
	}
	return nil
}
