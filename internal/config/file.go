package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for TOML and YAML files. Unset keys stay nil
// and leave the current value untouched.
type fileConfig struct {
	Server struct {
		Addr      *string `toml:"addr" yaml:"addr"`
		APISecret *string `toml:"api_secret" yaml:"api_secret"`
	} `toml:"server" yaml:"server"`

	Store struct {
		Backend       *string `toml:"backend" yaml:"backend"`
		PostgresDSN   *string `toml:"postgres_dsn" yaml:"postgres_dsn"`
		ClickHouseDSN *string `toml:"clickhouse_dsn" yaml:"clickhouse_dsn"`
		LogCapacity   *int    `toml:"log_capacity" yaml:"log_capacity"`
		Migrate       *bool   `toml:"migrate" yaml:"migrate"`
	} `toml:"store" yaml:"store"`

	Timer struct {
		Enabled     *bool   `toml:"enabled" yaml:"enabled"`
		Schedule    *string `toml:"schedule" yaml:"schedule"`
		TickTimeout *string `toml:"tick_timeout" yaml:"tick_timeout"`
	} `toml:"timer" yaml:"timer"`

	Session struct {
		Budget *string `toml:"budget" yaml:"budget"`
		Margin *string `toml:"margin" yaml:"margin"`
	} `toml:"session" yaml:"session"`

	Sources struct {
		DexScreener   *string `toml:"dexscreener" yaml:"dexscreener"`
		GeckoTerminal *string `toml:"geckoterminal" yaml:"geckoterminal"`
		CoinGecko     *string `toml:"coingecko" yaml:"coingecko"`
		Timeout       *string `toml:"timeout" yaml:"timeout"`
		MaxRetries    *int    `toml:"max_retries" yaml:"max_retries"`
	} `toml:"sources" yaml:"sources"`

	Deploy struct {
		DryRun      *bool   `toml:"dry_run" yaml:"dry_run"`
		Enrich      *bool   `toml:"enrich" yaml:"enrich"`
		HTTPTimeout *string `toml:"http_timeout" yaml:"http_timeout"`
	} `toml:"deploy" yaml:"deploy"`

	Telegram struct {
		Token  *string `toml:"token" yaml:"token"`
		ChatID *int64  `toml:"chat_id" yaml:"chat_id"`
	} `toml:"telegram" yaml:"telegram"`
}

func loadFile(cfg *Config, path string) error {
	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("load config %s: unsupported extension %q", path, ext)
	}
	return raw.apply(cfg)
}

func (f *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Server.Addr, f.Server.Addr)
	setString(&cfg.Server.APISecret, f.Server.APISecret)

	setString(&cfg.Store.Backend, f.Store.Backend)
	setString(&cfg.Store.PostgresDSN, f.Store.PostgresDSN)
	setString(&cfg.Store.ClickHouseDSN, f.Store.ClickHouseDSN)
	setValue(&cfg.Store.LogCapacity, f.Store.LogCapacity)
	setValue(&cfg.Store.Migrate, f.Store.Migrate)

	setValue(&cfg.Timer.Enabled, f.Timer.Enabled)
	setString(&cfg.Timer.Schedule, f.Timer.Schedule)

	setString(&cfg.Sources.DexScreener, f.Sources.DexScreener)
	setString(&cfg.Sources.GeckoTerminal, f.Sources.GeckoTerminal)
	setString(&cfg.Sources.CoinGecko, f.Sources.CoinGecko)
	setValue(&cfg.Sources.MaxRetries, f.Sources.MaxRetries)

	setValue(&cfg.Deploy.DryRun, f.Deploy.DryRun)
	setValue(&cfg.Deploy.Enrich, f.Deploy.Enrich)

	setString(&cfg.Telegram.Token, f.Telegram.Token)
	setValue(&cfg.Telegram.ChatID, f.Telegram.ChatID)

	durations := []struct {
		key string
		dst *time.Duration
		src *string
	}{
		{"timer.tick_timeout", &cfg.Timer.TickTimeout, f.Timer.TickTimeout},
		{"session.budget", &cfg.Session.Budget, f.Session.Budget},
		{"session.margin", &cfg.Session.Margin, f.Session.Margin},
		{"sources.timeout", &cfg.Sources.Timeout, f.Sources.Timeout},
		{"deploy.http_timeout", &cfg.Deploy.HTTPTimeout, f.Deploy.HTTPTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(*d.src))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
