package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Lifecycle    LifecycleConfig
	Worker       WorkerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
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

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters. Tokens are minted by
// the identity provider with the same shared secret.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// LifecycleConfig holds the wall-clock windows that gate event transitions.
type LifecycleConfig struct {
	StartLeadMinutes         int
	StartGraceMinutes        int
	AutoCompleteGraceMinutes int
}

// WorkerConfig configures the background auto-complete sweep.
type WorkerConfig struct {
	AutoCompleteEnabled         bool
	AutoCompleteIntervalSeconds int
	AutoCompleteBatchSize       int
	LockTTLSeconds              int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
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
			Name:                  getEnv("APP_NAME", "volunteer-events"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
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
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Lifecycle: LifecycleConfig{
			StartLeadMinutes:         getEnvAsInt("LIFECYCLE_START_LEAD_MINUTES", 120),
			StartGraceMinutes:        getEnvAsInt("LIFECYCLE_START_GRACE_MINUTES", 120),
			AutoCompleteGraceMinutes: getEnvAsInt("LIFECYCLE_AUTO_COMPLETE_GRACE_MINUTES", 120),
		},
		Worker: WorkerConfig{
			AutoCompleteEnabled:         getEnvAsBool("WORKER_AUTO_COMPLETE_ENABLED", true),
			AutoCompleteIntervalSeconds: getEnvAsInt("WORKER_AUTO_COMPLETE_INTERVAL_SECONDS", 60),
			AutoCompleteBatchSize:       getEnvAsInt("WORKER_AUTO_COMPLETE_BATCH_SIZE", 100),
			LockTTLSeconds:              getEnvAsInt("WORKER_LOCK_TTL_SECONDS", 50),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
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

// Windows converts the configured minutes into domain lifecycle windows.
// Non-positive values fall back to the defaults.
func (l LifecycleConfig) Windows() domain.LifecycleWindows {
	windows := domain.DefaultLifecycleWindows()
	if l.StartLeadMinutes > 0 {
		windows.StartLead = time.Duration(l.StartLeadMinutes) * time.Minute
	}
	if l.StartGraceMinutes > 0 {
		windows.StartGrace = time.Duration(l.StartGraceMinutes) * time.Minute
	}
	if l.AutoCompleteGraceMinutes > 0 {
		windows.AutoCompleteGrace = time.Duration(l.AutoCompleteGraceMinutes) * time.Minute
	}
	return windows
}

// Interval returns the sweep period.
func (w WorkerConfig) Interval() time.Duration {
	if w.AutoCompleteIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(w.AutoCompleteIntervalSeconds) * time.Second
}

// LockTTL returns how long a replica may hold the sweep lock.
func (w WorkerConfig) LockTTL() time.Duration {
	if w.LockTTLSeconds <= 0 {
		return w.Interval()
	}
	return time.Duration(w.LockTTLSeconds) * time.Second
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
