// Package config loads service configuration.
//
// Precedence, lowest first: defaults, a TOML or YAML file (chosen by
// extension), a .env file, process environment. Binaries apply flags last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
)

// Config is the full service configuration.
type Config struct {
	Server   Server
	Store    Store
	Timer    Timer
	Session  Session
	Sources  Sources
	Deploy   Deploy
	Telegram Telegram
}

// Server configures the HTTP surface.
type Server struct {
	Addr      string
	APISecret string // bearer secret for control and tick routes; empty disables auth
}

// Store configures the run state backend.
type Store struct {
	Backend       string
	PostgresDSN   string
	ClickHouseDSN string
	LogCapacity   int
	Migrate       bool
}

// Timer configures the in-process external-timer driver.
type Timer struct {
	Enabled     bool
	Schedule    string
	TickTimeout time.Duration
}

// Session configures the self-rescheduling session driver.
type Session struct {
	Budget time.Duration
	Margin time.Duration
}

// Sources configures market-data providers.
type Sources struct {
	DexScreener   string
	GeckoTerminal string
	CoinGecko     string
	Timeout       time.Duration
	MaxRetries    int
}

// Deploy configures the deployment protocol.
type Deploy struct {
	DryRun      bool
	Enrich      bool
	HTTPTimeout time.Duration
}

// Telegram configures the operator notifier.
type Telegram struct {
	Token  string
	ChatID int64
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		Store: Store{
			Backend:     BackendMemory,
			LogCapacity: 100,
			Migrate:     true,
		},
		Timer: Timer{
			Enabled:     true,
			Schedule:    "@every 1m",
			TickTimeout: 55 * time.Second,
		},
		Session: Session{
			Budget: 55 * time.Second,
			Margin: 2 * time.Second,
		},
		Sources: Sources{
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		Deploy: Deploy{
			Enrich:      true,
			HTTPTimeout: 30 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the optional file at path, .env and
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	LoadEnvFile(".env")
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres backend requires a DSN (POSTGRES_DSN)"))
		}
	case BackendClickHouse:
		if c.Store.ClickHouseDSN == "" {
			errs = append(errs, errors.New("clickhouse backend requires a DSN (CLICKHOUSE_DSN)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.LogCapacity <= 0 {
		errs = append(errs, errors.New("log capacity must be positive"))
	}
	if c.Timer.Enabled && strings.TrimSpace(c.Timer.Schedule) == "" {
		errs = append(errs, errors.New("timer schedule is empty"))
	}
	if c.Session.Budget <= c.Session.Margin {
		errs = append(errs, fmt.Errorf("session budget %v must exceed margin %v", c.Session.Budget, c.Session.Margin))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram token set without a chat id"))
	}
	return errors.Join(errs...)
}
