// Package config defines the top-level configuration for kioskwatch and
// provides loading and validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by KIOSKWATCH_* environment
// variables.
type Config struct {
	Sui      SuiConfig      `toml:"sui"`
	Market   MarketConfig   `toml:"market"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// SuiConfig selects the fullnode endpoints. RPCURL and WSURL override the
// per-network presets when set.
type SuiConfig struct {
	Network string `toml:"network"`
	RPCURL  string `toml:"rpc_url"`
	WSURL   string `toml:"ws_url"`
}

// rpcPresets maps each known network to its public fullnode JSON-RPC
// endpoint.
var rpcPresets = map[domain.Network]string{
	domain.NetworkLocalnet: "http://127.0.0.1:9000",
	domain.NetworkDevnet:   "https://fullnode.devnet.sui.io:443",
	domain.NetworkTestnet:  "https://fullnode.testnet.sui.io:443",
	domain.NetworkMainnet:  "https://fullnode.mainnet.sui.io:443",
}

// wsPresets maps each known network to its fullnode websocket endpoint.
var wsPresets = map[domain.Network]string{
	domain.NetworkLocalnet: "ws://127.0.0.1:9000",
	domain.NetworkDevnet:   "wss://fullnode.devnet.sui.io:443",
	domain.NetworkTestnet:  "wss://fullnode.testnet.sui.io:443",
	domain.NetworkMainnet:  "wss://fullnode.mainnet.sui.io:443",
}

// ResolveRPCURL returns the explicit RPC URL when set, otherwise the preset
// for the configured network.
func (s SuiConfig) ResolveRPCURL() string {
	if s.RPCURL != "" {
		return s.RPCURL
	}
	return rpcPresets[domain.Network(strings.ToLower(s.Network))]
}

// ResolveWSURL returns the explicit websocket URL when set, otherwise the
// preset for the configured network.
func (s SuiConfig) ResolveWSURL() string {
	if s.WSURL != "" {
		return s.WSURL
	}
	return wsPresets[domain.Network(strings.ToLower(s.Network))]
}

// MarketConfig describes which item type counts as a marketplace listing
// and how the listing set is refreshed.
type MarketConfig struct {
	// ModuleName and StructName identify the tradable item type, e.g.
	// workshop_nft::WorkshopNft.
	ModuleName string `toml:"module_name"`
	StructName string `toml:"struct_name"`

	// AllowedPublishers restricts listings to item types published by
	// these package IDs. Empty admits any publisher.
	AllowedPublishers []string `toml:"allowed_publishers"`

	// PollIntervalMs is the fallback poll cadence in milliseconds.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// DefaultLimit caps how many listings a pass returns when the caller
	// does not specify one.
	DefaultLimit int `toml:"default_limit"`
}

// RedisConfig holds Redis connection parameters for the display cache and
// the listings-changed signal bus. Disabled when Enabled is false.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds connection parameters for the snapshot store.
// Disabled when Enabled is false.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`

	// KeepSnapshots caps the snapshot history; older rows are pruned after
	// each insert. Zero or negative disables pruning.
	KeepSnapshots int `toml:"keep_snapshots"`
}

// S3Config holds S3-compatible object storage parameters for the snapshot
// archiver. Disabled when Enabled is false.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP API server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables authentication
}

// NotifyConfig holds notification channel credentials. A channel is active
// when its credentials are non-empty.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	TelegramBotToken  string   `toml:"telegram_bot_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	Events            []string `toml:"events"`
}

// Defaults returns the built-in configuration that a TOML file is merged on
// top of.
func Defaults() Config {
	return Config{
		Sui: SuiConfig{
			Network: string(domain.NetworkTestnet),
		},
		Market: MarketConfig{
			ModuleName:     "workshop_nft",
			StructName:     "WorkshopNft",
			PollIntervalMs: 10_000,
			DefaultLimit:   100,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "kioskwatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
			KeepSnapshots: 1000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "kioskwatch-snapshots",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"fetch": true,
	"watch": true,
	"serve": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for internal consistency and returns a
// single error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: fetch, watch, serve)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	network := domain.Network(strings.ToLower(c.Sui.Network))
	if !network.Valid() && c.Sui.RPCURL == "" {
		errs = append(errs, fmt.Sprintf("sui: unknown network %q and no rpc_url override (valid: localnet, devnet, testnet, mainnet)", c.Sui.Network))
	}

	if c.Market.ModuleName == "" {
		errs = append(errs, "market: module_name must not be empty")
	}
	if c.Market.StructName == "" {
		errs = append(errs, "market: struct_name must not be empty")
	}
	if c.Market.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Sprintf("market: poll_interval_ms must be positive, got %d", c.Market.PollIntervalMs))
	}
	if c.Market.DefaultLimit <= 0 {
		errs = append(errs, fmt.Sprintf("market: default_limit must be positive, got %d", c.Market.DefaultLimit))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}
	if c.Postgres.Enabled && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "" {
			errs = append(errs, "postgres: either dsn or host/database/user must be set when enabled")
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	// Telegram credentials come in pairs.
	tt := c.Notify.TelegramBotToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_bot_token and telegram_chat_id must be set together")
	}

	if c.Mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be in 1..65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
