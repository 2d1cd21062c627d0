package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnvFile loads KEY=VALUE lines from path into the environment.
// Existing variables are not overridden; a missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("LISTEN_ADDR", &cfg.Server.Addr)
	e.str("API_SECRET", &cfg.Server.APISecret)

	e.str("STORE_BACKEND", &cfg.Store.Backend)
	e.str("POSTGRES_DSN", &cfg.Store.PostgresDSN)
	e.str("CLICKHOUSE_DSN", &cfg.Store.ClickHouseDSN)
	e.integer("LOG_CAPACITY", &cfg.Store.LogCapacity)
	e.boolean("RUN_MIGRATIONS", &cfg.Store.Migrate)

	e.boolean("TIMER_ENABLED", &cfg.Timer.Enabled)
	e.str("TIMER_SCHEDULE", &cfg.Timer.Schedule)
	e.duration("TICK_TIMEOUT", &cfg.Timer.TickTimeout)

	e.duration("SESSION_BUDGET", &cfg.Session.Budget)
	e.duration("SESSION_MARGIN", &cfg.Session.Margin)

	e.str("DEXSCREENER_URL", &cfg.Sources.DexScreener)
	e.str("GECKOTERMINAL_URL", &cfg.Sources.GeckoTerminal)
	e.str("COINGECKO_URL", &cfg.Sources.CoinGecko)
	e.duration("SOURCE_TIMEOUT", &cfg.Sources.Timeout)
	e.integer("SOURCE_MAX_RETRIES", &cfg.Sources.MaxRetries)

	e.boolean("DRY_RUN", &cfg.Deploy.DryRun)
	e.boolean("ENRICH_WEBSITES", &cfg.Deploy.Enrich)
	e.duration("DEPLOY_HTTP_TIMEOUT", &cfg.Deploy.HTTPTimeout)

	e.str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token)
	if v, ok := e.get("TELEGRAM_CHAT_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail("TELEGRAM_CHAT_ID", err)
		} else {
			cfg.Telegram.ChatID = id
		}
	}

	return e.err
}

// envReader applies set, non-empty variables and keeps the first parse error.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("parse %s: %w", key, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}
