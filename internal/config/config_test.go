package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_TOKEN", "DATABASE_URL", "PORT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":5175", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.GamesAPI)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "./data/wordle.db", cfg.Store.DSN)
	assert.Equal(t, ModePoll, cfg.Telegram.Mode)
	assert.Equal(t, 25.0, cfg.Telegram.Rate)
	assert.Equal(t, 15*time.Minute, cfg.Pending.TTL)
	assert.Equal(t, 10000, cfg.Pending.Size)
}

func TestFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wordlebot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[http]
addr = ":9000"

[telegram]
mode = "webhook"
webhook_url = "https://example.org/telegram/webhook"
token = "from-file"

[pending]
ttl = "2m"
`), 0o644))

	t.Setenv("WORDLE_TELEGRAM_WEBHOOK_SECRET", "s3cret")
	t.Setenv("WORDLE_TELEGRAM_TOKEN", "from-env")
	t.Setenv("WORDLE_PENDING_SIZE", "42")
	t.Setenv("WORDLE_HTTP_GAMES_API", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, ModeWebhook, cfg.Telegram.Mode)
	assert.Equal(t, "s3cret", cfg.Telegram.WebhookSecret)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 2*time.Minute, cfg.Pending.TTL)
	assert.Equal(t, 42, cfg.Pending.Size)
	assert.False(t, cfg.HTTP.GamesAPI)
	assert.NoError(t, cfg.Validate())
}

func TestLegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "legacy")
	t.Setenv("DATABASE_URL", "postgres://localhost/wordle")
	t.Setenv("PORT", "8080")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Telegram.Token)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/wordle", cfg.Store.DSN)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	// Prefixed variables win over the legacy names.
	t.Setenv("WORDLE_STORE_DRIVER", "memory")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "telegram.webhook_secret", envKey("WORDLE_TELEGRAM_WEBHOOK_SECRET"))
	assert.Equal(t, "store.dsn", envKey("WORDLE_STORE_DSN"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "poll with token", mutate: func(c *Config) { c.Telegram.Token = "t" }},
		{name: "off without token", mutate: func(c *Config) { c.Telegram.Mode = ModeOff }},
		{name: "poll without token", mutate: func(c *Config) {}, wantErr: true},
		{name: "webhook without url", mutate: func(c *Config) {
			c.Telegram.Token = "t"
			c.Telegram.Mode = ModeWebhook
		}, wantErr: true},
		{name: "unknown mode", mutate: func(c *Config) { c.Telegram.Mode = "carrier-pigeon" }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) {
			c.Telegram.Mode = ModeOff
			c.Pending.TTL = -time.Second
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Telegram.Mode = ModePoll
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
