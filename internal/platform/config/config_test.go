package config

import (
	"os"
	"testing"
	"time"
)

const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testPostgresDSN    = "postgres://localhost/test"
	testErrLoad        = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
}

// unsetEnv removes a variable for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_MissingRequired(t *testing.T) {
	unsetEnv(t, testEnvPostgresDSN)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing POSTGRES_DSN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	for _, key := range []string{
		"APP_ENV", "HEALTH_PORT", "TG_SESSION_PATH", "TG_CHANNELS", "READER_INTERVAL",
		"WORKER_BATCH_SIZE", "BOT_WINDOW_SIZE", "GRAPH_INTERVAL", "ALERT_THREAT_THRESHOLD",
		"ALERT_BOT_THRESHOLD", "ALERT_STREAM", "TG_API_ID", "TG_API_HASH",
	} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if !cfg.IsLocal() {
		t.Errorf("AppEnv default = %q, want local", cfg.AppEnv)
	}

	if cfg.HealthPort != 8080 {
		t.Errorf("HealthPort default = %d, want %d", cfg.HealthPort, 8080)
	}

	if cfg.TGSessionPath != "./tg.session" {
		t.Errorf("TGSessionPath default = %q", cfg.TGSessionPath)
	}

	if cfg.ReaderInterval != time.Minute {
		t.Errorf("ReaderInterval default = %v, want 1m", cfg.ReaderInterval)
	}

	if cfg.WorkerBatchSize != 20 || cfg.BotWindowSize != 50 {
		t.Errorf("worker defaults = %d/%d, want 20/50", cfg.WorkerBatchSize, cfg.BotWindowSize)
	}

	if cfg.GraphInterval != 15*time.Minute {
		t.Errorf("GraphInterval default = %v, want 15m", cfg.GraphInterval)
	}

	if cfg.AlertThreatThreshold != 80 || cfg.AlertBotThreshold != 0.7 {
		t.Errorf("alert thresholds = %d/%v, want 80/0.7", cfg.AlertThreatThreshold, cfg.AlertBotThreshold)
	}

	if cfg.AlertStream != "threat-alerts" {
		t.Errorf("AlertStream default = %q", cfg.AlertStream)
	}

	if cfg.TelegramEnabled() {
		t.Error("TelegramEnabled should be false without credentials")
	}
}

func TestLoad_Lists(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ADMIN_IDS", "111,222,333")
	t.Setenv("TG_CHANNELS", "market_one, ,market_two ")
	t.Setenv("FEED_URLS", "https://example.com/rss")
	t.Setenv("TG_API_ID", "12345")
	t.Setenv("TG_API_HASH", "abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	expected := []int64{111, 222, 333}
	if len(cfg.AdminIDs) != len(expected) {
		t.Fatalf("AdminIDs length = %d, want %d", len(cfg.AdminIDs), len(expected))
	}

	for i, want := range expected {
		if cfg.AdminIDs[i] != want {
			t.Errorf("AdminIDs[%d] = %d, want %d", i, cfg.AdminIDs[i], want)
		}
	}

	if len(cfg.TGChannels) != 2 || cfg.TGChannels[0] != "market_one" || cfg.TGChannels[1] != "market_two" {
		t.Errorf("TGChannels = %q", cfg.TGChannels)
	}

	if len(cfg.FeedURLs) != 1 {
		t.Errorf("FeedURLs = %q", cfg.FeedURLs)
	}

	if !cfg.TelegramEnabled() {
		t.Error("TelegramEnabled should be true with credentials and channels")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"TG_API_ID", "not-a-number"},
		{"READER_INTERVAL", "soon"},
		{"ALERT_BOT_THRESHOLD", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequiredEnvVars(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for invalid %s", tt.key)
			}
		})
	}
}
