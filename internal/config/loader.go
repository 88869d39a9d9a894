package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies KIOSKWATCH_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known KIOSKWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Sui ──
	setStr(&cfg.Sui.Network, "KIOSKWATCH_SUI_NETWORK")
	setStr(&cfg.Sui.RPCURL, "KIOSKWATCH_SUI_RPC_URL")
	setStr(&cfg.Sui.WSURL, "KIOSKWATCH_SUI_WS_URL")

	// ── Market ──
	setStr(&cfg.Market.ModuleName, "KIOSKWATCH_MARKET_MODULE_NAME")
	setStr(&cfg.Market.StructName, "KIOSKWATCH_MARKET_STRUCT_NAME")
	setStringSlice(&cfg.Market.AllowedPublishers, "KIOSKWATCH_MARKET_ALLOWED_PUBLISHERS")
	setInt(&cfg.Market.PollIntervalMs, "KIOSKWATCH_MARKET_POLL_INTERVAL_MS")
	setInt(&cfg.Market.DefaultLimit, "KIOSKWATCH_MARKET_DEFAULT_LIMIT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "KIOSKWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "KIOSKWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "KIOSKWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "KIOSKWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "KIOSKWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "KIOSKWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "KIOSKWATCH_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "KIOSKWATCH_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "KIOSKWATCH_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "KIOSKWATCH_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "KIOSKWATCH_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "KIOSKWATCH_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "KIOSKWATCH_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "KIOSKWATCH_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "KIOSKWATCH_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "KIOSKWATCH_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "KIOSKWATCH_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "KIOSKWATCH_POSTGRES_RUN_MIGRATIONS")
	setInt(&cfg.Postgres.KeepSnapshots, "KIOSKWATCH_POSTGRES_KEEP_SNAPSHOTS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "KIOSKWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "KIOSKWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "KIOSKWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "KIOSKWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "KIOSKWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "KIOSKWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "KIOSKWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "KIOSKWATCH_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "KIOSKWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "KIOSKWATCH_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "KIOSKWATCH_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "KIOSKWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramBotToken, "KIOSKWATCH_NOTIFY_TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "KIOSKWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "KIOSKWATCH_NOTIFY_EVENTS")

	// ── Top level ──
	setStr(&cfg.Mode, "KIOSKWATCH_MODE")
	setStr(&cfg.LogLevel, "KIOSKWATCH_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
