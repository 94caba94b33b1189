package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Connection pool
	DBMaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Telegram MTProto source
	TGAPIID       int      `env:"TG_API_ID"`
	TGAPIHash     string   `env:"TG_API_HASH"`
	TGPhone       string   `env:"TG_PHONE"`
	TG2FAPassword string   `env:"TG_2FA_PASSWORD"`
	TGSessionPath string   `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	TGChannels    []string `env:"TG_CHANNELS" envSeparator:","`

	// Other sources
	FeedURLs    []string `env:"FEED_URLS" envSeparator:","`
	ImportPaths []string `env:"IMPORT_PATHS" envSeparator:","`

	// Reader
	ReaderFetchLimit int           `env:"READER_FETCH_LIMIT" envDefault:"50"`
	ReaderInterval   time.Duration `env:"READER_INTERVAL" envDefault:"1m"`
	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Worker
	WorkerBatchSize    int           `env:"WORKER_BATCH_SIZE" envDefault:"20"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
	AnalysisWorkers    int           `env:"ANALYSIS_WORKERS" envDefault:"4"`
	BotWindowSize      int           `env:"BOT_WINDOW_SIZE" envDefault:"50"`
	OCRCommand         string        `env:"OCR_COMMAND"`
	OCRLang            string        `env:"OCR_LANG" envDefault:"eng"`

	// Linkage graph
	GraphInterval     time.Duration `env:"GRAPH_INTERVAL" envDefault:"15m"`
	GraphAccountLimit int           `env:"GRAPH_ACCOUNT_LIMIT" envDefault:"5000"`

	// Alerts
	AlertThreatThreshold int     `env:"ALERT_THREAT_THRESHOLD" envDefault:"80"`
	AlertBotThreshold    float64 `env:"ALERT_BOT_THRESHOLD" envDefault:"0.7"`
	BotToken             string  `env:"BOT_TOKEN"`
	AdminIDs             []int64 `env:"ADMIN_IDS" envSeparator:","`
	RedisURL             string  `env:"REDIS_URL"`
	AlertStream          string  `env:"ALERT_STREAM" envDefault:"threat-alerts"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.TGChannels = cleanList(cfg.TGChannels)
	cfg.FeedURLs = cleanList(cfg.FeedURLs)
	cfg.ImportPaths = cleanList(cfg.ImportPaths)

	return cfg, nil
}

// TelegramEnabled reports whether MTProto credentials and channels are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TGAPIID != 0 && c.TGAPIHash != "" && len(c.TGChannels) > 0
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}
