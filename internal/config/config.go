// Package config loads runtime settings.
//
// Layers, lowest priority first: built-in defaults, an optional TOML file,
// the plain environment names used by older deployments (TELEGRAM_TOKEN,
// DATABASE_URL, PORT, LOG_LEVEL), and WORDLE_* variables. A .env file in the
// working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/robalobadob/wordle-with-friends/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. WORDLE_STORE_DSN.
const EnvPrefix = "WORDLE_"

// Telegram transport modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
	ModeOff     = "off"
)

// Config is the full runtime configuration.
type Config struct {
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	HTTP struct {
		Addr       string `koanf:"addr"`
		CORSOrigin string `koanf:"cors_origin"`
		GamesAPI   bool   `koanf:"games_api"` // serve GET /games/{chatID}
	} `koanf:"http"`

	Store store.Config `koanf:"store"`

	Words struct {
		File string `koanf:"file"` // empty selects the embedded list
	} `koanf:"words"`

	Telegram struct {
		Token         string  `koanf:"token"`
		Mode          string  `koanf:"mode"`
		WebhookURL    string  `koanf:"webhook_url"`
		WebhookSecret string  `koanf:"webhook_secret"`
		Rate          float64 `koanf:"rate"`
	} `koanf:"telegram"`

	Pending struct {
		TTL  time.Duration `koanf:"ttl"`
		Size int           `koanf:"size"`
	} `koanf:"pending"`
}

var defaults = map[string]interface{}{
	"log.level":        "info",
	"http.addr":        ":5175",
	"http.cors_origin": "http://localhost:5173",
	"http.games_api":   true,
	"store.driver":     "sqlite",
	"store.dsn":        "./data/wordle.db",
	"telegram.mode":    ModePoll,
	"telegram.rate":    25.0,
	"pending.ttl":      "15m",
	"pending.size":     10000,
}

// defaultPaths are tried in order when no config file is given.
var defaultPaths = []string{"./wordlebot.toml", "$HOME/.wordlebot.toml"}

// Load builds the configuration. configPath may be empty.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", configPath, err)
		}
	} else {
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("config: load %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := k.Load(confmap.Provider(legacyEnv(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: legacy env: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// envKey maps WORDLE_TELEGRAM_WEBHOOK_SECRET to telegram.webhook_secret.
// Only the first underscore separates section from key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func legacyEnv() map[string]interface{} {
	out := map[string]interface{}{}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		out["telegram.token"] = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		out["store.driver"] = "postgres"
		out["store.dsn"] = v
	}
	if v := os.Getenv("PORT"); v != "" {
		out["http.addr"] = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		out["log.level"] = v
	}
	return out
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Telegram.Mode {
	case ModePoll, ModeOff:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return errors.New("config: telegram.webhook_url is required in webhook mode")
		}
	default:
		return fmt.Errorf("config: telegram.mode must be poll, webhook or off, got %q", c.Telegram.Mode)
	}
	if c.Telegram.Mode != ModeOff && c.Telegram.Token == "" {
		return errors.New("config: telegram.token is required unless telegram.mode is off")
	}
	if c.Pending.Size < 0 || c.Pending.TTL < 0 {
		return errors.New("config: pending.size and pending.ttl must not be negative")
	}
	return nil
}
