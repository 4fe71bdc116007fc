// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetExpirySweepSpec() string
}

// ChatConfig provides settings for the conversation session store.
type ChatConfig interface {
	RedisConfig
	GetChatSessionTTL() time.Duration
}

// ClassifierConfig provides settings for the external conversation classifier.
type ClassifierConfig interface {
	GetGeminiAPIKey() string
	GetClassifierModel() string
	GetClassifierTimeout() time.Duration
	IsClassifierEnabled() bool
}

// EmailConfig provides settings for vendor/customer email notifications.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// DispatchConfig provides dispatch policy settings.
type DispatchConfig interface {
	// GetRejectSiblingsOnAccept controls whether accepting a quote rejects
	// the other submitted quotes on the same ticket.
	GetRejectSiblingsOnAccept() bool
	// GetUrgentHold controls whether a vendor with an active urgent ticket
	// is skipped by urgent vendor selection.
	GetUrgentHold() bool
	// GetDefaultRegion is the region used for vendor phone normalization.
	GetDefaultRegion() string
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	corsAllowAll bool
	corsOrigins  []string

	databaseURL string

	redisURL         string
	redisTLSInsecure bool
	asynqQueue       string
	asynqConcurrency int
	expirySweepSpec  string

	chatSessionTTL time.Duration

	geminiAPIKey      string
	classifierModel   string
	classifierTimeout time.Duration

	emailEnabled bool
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	emailFrom    string
	emailName    string

	rejectSiblingsOnAccept bool
	urgentHold             bool
	defaultRegion          string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		corsAllowAll: getEnvBool("CORS_ALLOW_ALL", false),
		corsOrigins:  splitAndTrim(getEnv("CORS_ORIGINS", "")),

		databaseURL: os.Getenv("DATABASE_URL"),

		redisURL:         os.Getenv("REDIS_URL"),
		redisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		asynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		asynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),
		expirySweepSpec:  getEnv("EXPIRY_SWEEP_SPEC", "@every 1m"),

		chatSessionTTL: getEnvDuration("CHAT_SESSION_TTL", 24*time.Hour),

		geminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		classifierModel:   getEnv("CLASSIFIER_MODEL", "gemini-2.0-flash"),
		classifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 8*time.Second),

		emailEnabled: getEnvBool("EMAIL_ENABLED", false),
		smtpHost:     os.Getenv("SMTP_HOST"),
		smtpPort:     getEnvInt("SMTP_PORT", 587),
		smtpUsername: os.Getenv("SMTP_USERNAME"),
		smtpPassword: os.Getenv("SMTP_PASSWORD"),
		emailFrom:    getEnv("EMAIL_FROM_ADDRESS", "no-reply@fixmarket.local"),
		emailName:    getEnv("EMAIL_FROM_NAME", "FixMarket"),

		rejectSiblingsOnAccept: getEnvBool("QUOTES_REJECT_SIBLINGS_ON_ACCEPT", false),
		urgentHold:             getEnvBool("DISPATCH_URGENT_HOLD", true),
		defaultRegion:          getEnv("DEFAULT_REGION", "US"),
	}

	if cfg.databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) GetDatabaseURL() string            { return c.databaseURL }
func (c *Config) GetRedisURL() string               { return c.redisURL }
func (c *Config) GetRedisTLSInsecure() bool         { return c.redisTLSInsecure }
func (c *Config) GetHTTPAddr() string               { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool             { return c.corsAllowAll }
func (c *Config) GetCORSOrigins() []string          { return c.corsOrigins }
func (c *Config) GetAsynqQueueName() string         { return c.asynqQueue }
func (c *Config) GetAsynqConcurrency() int          { return c.asynqConcurrency }
func (c *Config) GetExpirySweepSpec() string        { return c.expirySweepSpec }
func (c *Config) GetChatSessionTTL() time.Duration  { return c.chatSessionTTL }
func (c *Config) GetGeminiAPIKey() string           { return c.geminiAPIKey }
func (c *Config) GetClassifierModel() string        { return c.classifierModel }
func (c *Config) GetClassifierTimeout() time.Duration { return c.classifierTimeout }
func (c *Config) IsClassifierEnabled() bool         { return c.geminiAPIKey != "" }
func (c *Config) GetEmailEnabled() bool             { return c.emailEnabled && c.smtpHost != "" }
func (c *Config) GetSMTPHost() string               { return c.smtpHost }
func (c *Config) GetSMTPPort() int                  { return c.smtpPort }
func (c *Config) GetSMTPUsername() string           { return c.smtpUsername }
func (c *Config) GetSMTPPassword() string           { return c.smtpPassword }
func (c *Config) GetEmailFromName() string          { return c.emailName }
func (c *Config) GetEmailFromAddress() string       { return c.emailFrom }
func (c *Config) GetRejectSiblingsOnAccept() bool   { return c.rejectSiblingsOnAccept }
func (c *Config) GetUrgentHold() bool               { return c.urgentHold }
func (c *Config) GetDefaultRegion() string          { return c.defaultRegion }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
