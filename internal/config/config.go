package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	AI           AIConfig
	Jobs         JobsConfig
	Presence     PresenceConfig
	Notification NotificationConfig
	Reports      ReportsConfig
	RateLimit    RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	DefaultLocale         string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MongoConfig holds transcript store connection values. An empty URI keeps
// transcripts in memory.
type MongoConfig struct {
	URI        string
	Database   string
	TimeoutSec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// AIConfig defines the upstream assistant relay.
type AIConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	MaxTokens      int
	TimeoutSec     int
	SendDelayMS    int
	MaxHistory     int
	SuggestHistory int
}

// JobsConfig configures the asynq client and worker.
type JobsConfig struct {
	Concurrency  int
	WebhookRetry int
}

// PresenceConfig tunes agent presence tracking.
type PresenceConfig struct {
	HeartbeatTTLSeconds int
	DefaultBreakSeconds int
	BreakLedgerTTLHours int
}

// NotificationConfig holds outbound delivery settings.
type NotificationConfig struct {
	WebhookTimeoutSec int
}

// ReportsConfig controls export generation.
type ReportsConfig struct {
	ExportDir    string
	MaxRangeDays int
}

// RateLimitConfig caps sensitive endpoints per client.
type RateLimitConfig struct {
	LoginPerMinute int
	AIPerMinute    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "panel-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			DefaultLocale:         getEnv("APP_DEFAULT_LOCALE", "en"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Mongo: MongoConfig{
			URI:        os.Getenv("MONGO_URI"),
			Database:   getEnv("MONGO_DATABASE", "panel_ai"),
			TimeoutSec: getEnvAsInt("MONGO_TIMEOUT_SECONDS", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		AI: AIConfig{
			BaseURL:        getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         os.Getenv("AI_API_KEY"),
			Model:          getEnv("AI_MODEL", "gpt-4o-mini"),
			MaxTokens:      getEnvAsInt("AI_MAX_TOKENS", 1024),
			TimeoutSec:     getEnvAsInt("AI_TIMEOUT_SECONDS", 60),
			SendDelayMS:    getEnvAsInt("AI_SEND_DELAY_MS", 750),
			MaxHistory:     getEnvAsInt("AI_MAX_HISTORY", 12),
			SuggestHistory: getEnvAsInt("AI_SUGGEST_HISTORY", 10),
		},
		Jobs: JobsConfig{
			Concurrency:  getEnvAsInt("JOBS_CONCURRENCY", 10),
			WebhookRetry: getEnvAsInt("JOBS_WEBHOOK_MAX_RETRY", 5),
		},
		Presence: PresenceConfig{
			HeartbeatTTLSeconds: getEnvAsInt("PRESENCE_HEARTBEAT_TTL_SECONDS", 90),
			DefaultBreakSeconds: getEnvAsInt("PRESENCE_DEFAULT_BREAK_SECONDS", 3600),
			BreakLedgerTTLHours: getEnvAsInt("PRESENCE_BREAK_LEDGER_TTL_HOURS", 48),
		},
		Notification: NotificationConfig{
			WebhookTimeoutSec: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 10),
		},
		Reports: ReportsConfig{
			ExportDir:    getEnv("REPORTS_EXPORT_DIR", "exports"),
			MaxRangeDays: getEnvAsInt("REPORTS_MAX_RANGE_DAYS", 92),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("RATE_LIMIT_LOGIN_PER_MINUTE", 10),
			AIPerMinute:    getEnvAsInt("RATE_LIMIT_AI_PER_MINUTE", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SendDelay returns the minimum spacing between assistant calls in a session.
func (c AIConfig) SendDelay() time.Duration {
	if c.SendDelayMS <= 0 {
		return 0
	}
	return time.Duration(c.SendDelayMS) * time.Millisecond
}

// Timeout returns the upstream request timeout.
func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// HeartbeatTTL returns the presence key expiry.
func (p PresenceConfig) HeartbeatTTL() time.Duration {
	return time.Duration(p.HeartbeatTTLSeconds) * time.Second
}

// BreakLedgerTTL returns how long daily break counters are retained.
func (p PresenceConfig) BreakLedgerTTL() time.Duration {
	return time.Duration(p.BreakLedgerTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
