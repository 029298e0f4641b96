// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, queue and agent identifiers, rate
// limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-telegram-gateway")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
	Environment string  // mirrors ENVIRONMENT for the deployment.environment resource attribute
}

// QueueConfig defines queue consumption settings.
type QueueConfig struct {
	URL               string        // QUEUE_URL (required)
	BatchSize         int           // QUEUE_BATCH_SIZE in [1,10]
	WaitTime          time.Duration // QUEUE_WAIT_TIME (long-poll duration)
	VisibilityTimeout time.Duration // QUEUE_VISIBILITY_TIMEOUT
}

// AgentConfig identifies the conversational agent to invoke.
type AgentConfig struct {
	ID      string        // AGENT_ID (required)
	AliasID string        // AGENT_ALIAS_ID (required)
	Timeout time.Duration // AGENT_TIMEOUT per invocation
}

// TelegramConfig defines the chat-platform integration settings.
type TelegramConfig struct {
	TokenParam       string // BOT_TOKEN_PARAM (parameter-store path of the bot token)
	APIBase          string // TELEGRAM_API_BASE (override for tests/local)
	WebhookPublicURL string // WEBHOOK_PUBLIC_URL (register webhook on start when set)
	TrustProxyChain  bool   // TRUST_PROXY_CHAIN (read origin from X-Forwarded-For)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Deployment
	Environment string // ENVIRONMENT tag (e.g. dev|staging|prod)

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// AWS
	Region string // AWS_REGION (empty lets the SDK resolve it)

	// Domain
	Queue    QueueConfig
	Agent    AgentConfig
	Telegram TelegramConfig

	// Dedupe store
	DedupeDBPath string        // DEDUPE_DB_PATH (empty disables the store)
	DedupeTTL    time.Duration // DEDUPE_TTL (prune horizon for old records)

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Deployment
		Environment: strings.ToLower(getenv("ENVIRONMENT", "dev")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// AWS
		Region: getenv("AWS_REGION", ""),

		// Domain
		Queue: QueueConfig{
			URL:               getenv("QUEUE_URL", ""),
			BatchSize:         getint("QUEUE_BATCH_SIZE", 10),
			WaitTime:          getdur("QUEUE_WAIT_TIME", 20*time.Second),
			VisibilityTimeout: getdur("QUEUE_VISIBILITY_TIMEOUT", 60*time.Second),
		},
		Agent: AgentConfig{
			ID:      getenv("AGENT_ID", ""),
			AliasID: getenv("AGENT_ALIAS_ID", ""),
			Timeout: getdur("AGENT_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			TokenParam:       getenv("BOT_TOKEN_PARAM", "/telegram-gateway/bot-token"),
			APIBase:          getenv("TELEGRAM_API_BASE", ""),
			WebhookPublicURL: getenv("WEBHOOK_PUBLIC_URL", ""),
			TrustProxyChain:  getbool("TRUST_PROXY_CHAIN", true),
		},

		// Dedupe store
		DedupeDBPath: getenv("DEDUPE_DB_PATH", "gateway.db"),
		DedupeTTL:    getdur("DEDUPE_TTL", 7*24*time.Hour),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 30.0),
		RateBurst: getint("RATE_BURST", 60),

		// Web protection
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-telegram-gateway"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.OTEL.Environment = cfg.Environment
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.Queue.URL) == "" {
		return cfg, errors.New("QUEUE_URL must not be empty")
	}
	if cfg.Queue.BatchSize < 1 || cfg.Queue.BatchSize > 10 {
		return cfg, errors.New("QUEUE_BATCH_SIZE must be between 1 and 10")
	}
	if cfg.Queue.WaitTime < 0 || cfg.Queue.WaitTime > 20*time.Second {
		return cfg, errors.New("QUEUE_WAIT_TIME must be between 0s and 20s")
	}
	if cfg.Queue.VisibilityTimeout <= 0 {
		return cfg, errors.New("QUEUE_VISIBILITY_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.Agent.ID) == "" {
		return cfg, errors.New("AGENT_ID must not be empty")
	}
	if strings.TrimSpace(cfg.Agent.AliasID) == "" {
		return cfg, errors.New("AGENT_ALIAS_ID must not be empty")
	}
	if cfg.Agent.Timeout <= 0 {
		return cfg, errors.New("AGENT_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.Telegram.TokenParam) == "" {
		return cfg, errors.New("BOT_TOKEN_PARAM must not be empty")
	}
	if u := cfg.Telegram.WebhookPublicURL; u != "" && !strings.HasPrefix(u, "https://") {
		return cfg, fmt.Errorf("WEBHOOK_PUBLIC_URL must be an https URL, got %q", u)
	}
	if cfg.DedupeTTL <= 0 {
		return cfg, errors.New("DEDUPE_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
