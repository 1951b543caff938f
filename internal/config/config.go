package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	Correlation CorrelationConfig
	Oracle      OracleConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Slack       SlackConfig
	Auth        AuthConfig
	LogFile     string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// CorrelationConfig holds the timing windows of the event-correlation
// pipeline.
type CorrelationConfig struct {
	AttributionWindow time.Duration // drug mention -> confusion attribution
	TriggerWindow     time.Duration // confusion -> clarification eligibility
	ClarificationTTL  time.Duration // auto-expiry of a shown clarification
	DebounceWindow    time.Duration // duplicate drug-detection suppression
}

// OracleConfig holds the external drug-interaction lookup settings.
type OracleConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds optional PostgreSQL settings for the durable visit
// record archive. The archive is enabled when Host is non-empty.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// Enabled reports whether the Postgres archive is configured.
func (c *DatabaseConfig) Enabled() bool { return c.Host != "" }

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds optional Redis settings for clarification fan-out.
// Fan-out is enabled when Addr is non-empty.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether Redis fan-out is configured.
func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

// SlackConfig holds optional clinician-notification settings.
type SlackConfig struct {
	BotToken         string
	ClinicianChannel string
}

// Enabled reports whether Slack notifications are configured.
func (c *SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.ClinicianChannel != ""
}

// AuthConfig holds optional producer-auth settings. When Secret is set the
// API requires a Bearer HS256 token signed with it.
type AuthConfig struct {
	Secret string //nolint:gosec // G117: shared-secret config
}

// Enabled reports whether producer auth is required.
func (c *AuthConfig) Enabled() bool { return c.Secret != "" }

// Load reads configuration from the environment, after a best-effort .env
// preload. Defaults are safe for local development only.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	readTimeout, err := getEnvDuration("TELEHEALTH_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TELEHEALTH_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	attribution, err := getEnvDuration("TELEHEALTH_ATTRIBUTION_WINDOW", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	trigger, err := getEnvDuration("TELEHEALTH_TRIGGER_WINDOW", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	clarificationTTL, err := getEnvDuration("TELEHEALTH_CLARIFICATION_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	debounce, err := getEnvDuration("TELEHEALTH_DEBOUNCE_WINDOW", 8*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	oracleTimeout, err := getEnvDuration("TELEHEALTH_ORACLE_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("TELEHEALTH_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TELEHEALTH_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TELEHEALTH_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("TELEHEALTH_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("TELEHEALTH_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Correlation: CorrelationConfig{
			AttributionWindow: attribution,
			TriggerWindow:     trigger,
			ClarificationTTL:  clarificationTTL,
			DebounceWindow:    debounce,
		},
		Oracle: OracleConfig{
			BaseURL: getEnv("TELEHEALTH_ORACLE_URL", ""),
			Timeout: oracleTimeout,
		},
		Database: DatabaseConfig{
			Host:     getEnv("TELEHEALTH_DB_HOST", ""),
			Port:     dbPort,
			User:     getEnv("TELEHEALTH_DB_USER", "telehealth"),
			Password: getEnv("TELEHEALTH_DB_PASSWORD", ""),
			DBName:   getEnv("TELEHEALTH_DB_NAME", "telehealth_dev"),
			SSLMode:  getEnv("TELEHEALTH_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TELEHEALTH_REDIS_ADDR", ""),
			Password: getEnv("TELEHEALTH_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Slack: SlackConfig{
			BotToken:         getEnv("TELEHEALTH_SLACK_BOT_TOKEN", ""),
			ClinicianChannel: getEnv("TELEHEALTH_SLACK_CLINICIAN_CHANNEL", ""),
		},
		Auth: AuthConfig{
			Secret: getEnv("TELEHEALTH_AUTH_SECRET", ""),
		},
		LogFile: getEnv("TELEHEALTH_LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds and window ordering.
func (c *Config) validate() error {
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TELEHEALTH_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TELEHEALTH_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Correlation.AttributionWindow <= 0 {
		return fmt.Errorf("TELEHEALTH_ATTRIBUTION_WINDOW must be positive, got %s", c.Correlation.AttributionWindow)
	}
	if c.Correlation.TriggerWindow < c.Correlation.AttributionWindow {
		return fmt.Errorf("TELEHEALTH_TRIGGER_WINDOW (%s) must not be shorter than TELEHEALTH_ATTRIBUTION_WINDOW (%s)",
			c.Correlation.TriggerWindow, c.Correlation.AttributionWindow)
	}
	if c.Correlation.ClarificationTTL <= 0 {
		return fmt.Errorf("TELEHEALTH_CLARIFICATION_TTL must be positive, got %s", c.Correlation.ClarificationTTL)
	}
	if c.Correlation.DebounceWindow <= 0 {
		return fmt.Errorf("TELEHEALTH_DEBOUNCE_WINDOW must be positive, got %s", c.Correlation.DebounceWindow)
	}

	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("TELEHEALTH_ORACLE_TIMEOUT must be positive, got %s", c.Oracle.Timeout)
	}

	if c.Database.Enabled() {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("TELEHEALTH_DB_PORT must be 1-65535, got %d", c.Database.Port)
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("TELEHEALTH_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
		}
	}

	if c.Auth.Secret != "" && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("TELEHEALTH_AUTH_SECRET must be at least 32 characters")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
