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
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Scoring      ScoringConfig
	Scheduler    SchedulerConfig
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// ScoringConfig controls the recovery scorer.
type ScoringConfig struct {
	ModelPath   string
	LockTTLSecs int
}

// SchedulerConfig sets the intervals of the SLA monitoring jobs.
type SchedulerConfig struct {
	BreachScanMinutes    int
	StatusRefreshMinutes int
	EscalationMinutes    int
	CleanupMinutes       int
	DailyReportMinutes   int
}

func (s SchedulerConfig) BreachScanInterval() time.Duration {
	return minutesOrDefault(s.BreachScanMinutes, 15)
}

func (s SchedulerConfig) StatusRefreshInterval() time.Duration {
	return minutesOrDefault(s.StatusRefreshMinutes, 6*60)
}

func (s SchedulerConfig) EscalationInterval() time.Duration {
	return minutesOrDefault(s.EscalationMinutes, 60)
}

func (s SchedulerConfig) CleanupInterval() time.Duration {
	return minutesOrDefault(s.CleanupMinutes, 60)
}

func (s SchedulerConfig) DailyReportInterval() time.Duration {
	return minutesOrDefault(s.DailyReportMinutes, 24*60)
}

func minutesOrDefault(minutes, fallback int) time.Duration {
	if minutes <= 0 {
		minutes = fallback
	}
	return time.Duration(minutes) * time.Minute
}

// LockTTL returns the allocation lock time-to-live.
func (s ScoringConfig) LockTTL() time.Duration {
	if s.LockTTLSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.LockTTLSecs) * time.Second
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
			Name:                  getEnv("APP_NAME", "debt-recovery-service"),
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
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Scoring: ScoringConfig{
			ModelPath:   getEnv("SCORING_MODEL_PATH", "data/recovery_model.json"),
			LockTTLSecs: getEnvAsInt("ALLOCATION_LOCK_TTL_SECONDS", 10),
		},
		Scheduler: SchedulerConfig{
			BreachScanMinutes:    getEnvAsInt("SLA_BREACH_SCAN_MINUTES", 15),
			StatusRefreshMinutes: getEnvAsInt("SLA_STATUS_REFRESH_MINUTES", 360),
			EscalationMinutes:    getEnvAsInt("SLA_ESCALATION_MINUTES", 60),
			CleanupMinutes:       getEnvAsInt("SLA_CLEANUP_MINUTES", 60),
			DailyReportMinutes:   getEnvAsInt("SLA_DAILY_REPORT_MINUTES", 1440),
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
