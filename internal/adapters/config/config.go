package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketpulse/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	ClickHouse    ClickHouseConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Pipeline      PipelineConfig
	Sentiment     SentimentConfig
	Risk          RiskConfig
	Workers       WorkerConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"marketpulse"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port      int     `envconfig:"HTTP_PORT" default:"8080"`
	RateLimit float64 `envconfig:"HTTP_RATE_LIMIT" default:"20"` // requests per second per server
	RateBurst int     `envconfig:"HTTP_RATE_BURST" default:"40"`
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"marketpulse"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

// PipelineConfig parameterizes the fusion pipeline. The former script-level
// constants (file paths, decay window) are explicit here so tests can swap
// fixtures and alternate windows without touching logic.
type PipelineConfig struct {
	PriceFile        string        `envconfig:"PIPELINE_PRICE_FILE" default:"data/raw/stock_yfinance_data.csv"`
	PostsFile        string        `envconfig:"PIPELINE_POSTS_FILE" default:"data/raw/stock_tweets.csv"`
	DecayWindowRows  int           `envconfig:"PIPELINE_DECAY_WINDOW_ROWS" default:"7"`
	ScoreConcurrency int           `envconfig:"PIPELINE_SCORE_CONCURRENCY" default:"8"`
	RunLockTTL       time.Duration `envconfig:"PIPELINE_RUN_LOCK_TTL" default:"30m"`
	// AsOf pins "today" for latest-signal views; the reference dataset ends
	// in late 2022, so a wall clock would render empty charts.
	AsOf string `envconfig:"PIPELINE_AS_OF" default:"2022-11-01"`
}

type SentimentConfig struct {
	Provider  string `envconfig:"SENTIMENT_PROVIDER" default:"lexicon"` // lexicon, openai
	OpenAIKey string `envconfig:"OPENAI_API_KEY"`
	Model     string `envconfig:"SENTIMENT_MODEL" default:"gpt-4o-mini"`
}

type RiskConfig struct {
	RiskFreeRate       float64 `envconfig:"RISK_FREE_RATE" default:"0.02"`
	TradingDaysPerYear int     `envconfig:"RISK_TRADING_DAYS" default:"252"`
}

type WorkerConfig struct {
	PipelineRefreshInterval time.Duration `envconfig:"WORKER_PIPELINE_REFRESH_INTERVAL" default:"24h"`
	PipelineRefreshEnabled  bool          `envconfig:"WORKER_PIPELINE_REFRESH_ENABLED" default:"false"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}

// AsOfDate parses the pinned "today" used for latest-signal views.
func (c PipelineConfig) AsOfDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.AsOf)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "bad PIPELINE_AS_OF %q", c.AsOf)
	}
	return t, nil
}
