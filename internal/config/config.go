// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, the relay's
// pull/heartbeat tuning, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "pos-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PullConfig tunes the pull/poll fallback endpoint.
type PullConfig struct {
	DefaultLimit  int           // PULL_DEFAULT_LIMIT: orders per poll when unspecified
	MaxLimit      int           // PULL_MAX_LIMIT: hard cap on caller-supplied limit
	DefaultStatus string        // PULL_DEFAULT_STATUS: commerce status filter default
	Lookback      time.Duration // PULL_LOOKBACK: default time window when no `since`
}

// HeartbeatConfig defines the device liveness thresholds.
type HeartbeatConfig struct {
	DisconnectedAfter time.Duration // HEARTBEAT_DISCONNECTED_AFTER
	OfflineAfter      time.Duration // HEARTBEAT_OFFLINE_AFTER
}

// WSConfig tunes the push channel transport.
type WSConfig struct {
	ReadLimit    int64         // WS_READ_LIMIT: max inbound frame size in bytes
	WriteTimeout time.Duration // WS_WRITE_TIMEOUT: per-connection send deadline
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

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath    string          // SQLite path
	Pull      PullConfig      // pull endpoint tuning
	Heartbeat HeartbeatConfig // device liveness thresholds
	WS        WSConfig        // push channel tuning

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Broadcast dedupe
	ReceiptTTL time.Duration // how long a broadcast Idempotency-Key is remembered

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

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/pos")),

		// App
		DBPath: getenv("DB_PATH", "relay.db"),
		Pull: PullConfig{
			DefaultLimit:  getint("PULL_DEFAULT_LIMIT", 50),
			MaxLimit:      getint("PULL_MAX_LIMIT", 200),
			DefaultStatus: getenv("PULL_DEFAULT_STATUS", "confirmed"),
			Lookback:      getdur("PULL_LOOKBACK", 60*24*time.Hour), // ~2 months
		},
		Heartbeat: HeartbeatConfig{
			DisconnectedAfter: getdur("HEARTBEAT_DISCONNECTED_AFTER", 10*time.Minute),
			OfflineAfter:      getdur("HEARTBEAT_OFFLINE_AFTER", 60*time.Minute),
		},
		WS: WSConfig{
			ReadLimit:    int64(getint("WS_READ_LIMIT", 64<<10)),
			WriteTimeout: getdur("WS_WRITE_TIMEOUT", 5*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Broadcast dedupe
		ReceiptTTL: getdur("RECEIPT_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "pos-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Pull.DefaultLimit < 1 {
		return cfg, errors.New("PULL_DEFAULT_LIMIT must be >= 1")
	}
	if cfg.Pull.MaxLimit < cfg.Pull.DefaultLimit {
		return cfg, errors.New("PULL_MAX_LIMIT must be >= PULL_DEFAULT_LIMIT")
	}
	if strings.TrimSpace(cfg.Pull.DefaultStatus) == "" {
		return cfg, errors.New("PULL_DEFAULT_STATUS must not be empty")
	}
	if cfg.Pull.Lookback <= 0 {
		return cfg, errors.New("PULL_LOOKBACK must be > 0")
	}
	if cfg.Heartbeat.DisconnectedAfter <= 0 || cfg.Heartbeat.OfflineAfter <= cfg.Heartbeat.DisconnectedAfter {
		return cfg, errors.New("heartbeat thresholds must satisfy 0 < HEARTBEAT_DISCONNECTED_AFTER < HEARTBEAT_OFFLINE_AFTER")
	}
	if cfg.WS.ReadLimit <= 0 {
		return cfg, errors.New("WS_READ_LIMIT must be > 0")
	}
	if cfg.WS.WriteTimeout <= 0 {
		return cfg, errors.New("WS_WRITE_TIMEOUT must be > 0")
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
	if cfg.ReceiptTTL <= 0 {
		return cfg, errors.New("RECEIPT_TTL must be > 0")
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

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
