package config

import (
	"reflect"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/pos/") // no leading slash + trailing slash -> "/api/pos"

	// App
	t.Setenv("DB_PATH", "relay-test.db")
	t.Setenv("PULL_DEFAULT_LIMIT", "25")
	t.Setenv("PULL_MAX_LIMIT", "100")
	t.Setenv("PULL_DEFAULT_STATUS", "confirmed")
	t.Setenv("PULL_LOOKBACK", "720h")
	t.Setenv("HEARTBEAT_DISCONNECTED_AFTER", "5m")
	t.Setenv("HEARTBEAT_OFFLINE_AFTER", "30m")
	t.Setenv("WS_READ_LIMIT", "32768")
	t.Setenv("WS_WRITE_TIMEOUT", "2s")

	// Rate limiting (invalids fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 10.0
	t.Setenv("RATE_BURST", "nope") // -> default 20

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Broadcast dedupe
	t.Setenv("RECEIPT_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/pos" {
		t.Fatalf("logging/docs fields unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "relay-test.db" {
		t.Fatalf("DBPath unexpected: %q", cfg.DBPath)
	}
	wantPull := PullConfig{DefaultLimit: 25, MaxLimit: 100, DefaultStatus: "confirmed", Lookback: 720 * time.Hour}
	if cfg.Pull != wantPull {
		t.Fatalf("Pull = %+v, want %+v", cfg.Pull, wantPull)
	}
	wantHB := HeartbeatConfig{DisconnectedAfter: 5 * time.Minute, OfflineAfter: 30 * time.Minute}
	if cfg.Heartbeat != wantHB {
		t.Fatalf("Heartbeat = %+v, want %+v", cfg.Heartbeat, wantHB)
	}
	wantWS := WSConfig{ReadLimit: 32768, WriteTimeout: 2 * time.Second}
	if cfg.WS != wantWS {
		t.Fatalf("WS = %+v, want %+v", cfg.WS, wantWS)
	}

	// Rate limiting fell back to defaults on parse failure
	if cfg.RateRPS != 10.0 || cfg.RateBurst != 20 {
		t.Fatalf("rate fields unexpected: rps=%v burst=%v", cfg.RateRPS, cfg.RateBurst)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security fields unexpected: %+v", cfg.Security)
	}

	// Broadcast dedupe
	if cfg.ReceiptTTL != 48*time.Hour {
		t.Fatalf("ReceiptTTL = %v", cfg.ReceiptTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure ||
		cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("OTEL fields unexpected: %+v", cfg.OTEL)
	}
}

// --- Validation failures ---

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"non-positive timeout", map[string]string{"READ_TIMEOUT": "-1s"}},
		{"pull default limit", map[string]string{"PULL_DEFAULT_LIMIT": "0"}},
		{"pull max below default", map[string]string{"PULL_DEFAULT_LIMIT": "50", "PULL_MAX_LIMIT": "10"}},
		{"pull lookback", map[string]string{"PULL_LOOKBACK": "-1h"}},
		{"heartbeat ordering", map[string]string{"HEARTBEAT_DISCONNECTED_AFTER": "1h", "HEARTBEAT_OFFLINE_AFTER": "10m"}},
		{"ws read limit", map[string]string{"WS_READ_LIMIT": "-1"}},
		{"ws write timeout", map[string]string{"WS_WRITE_TIMEOUT": "-1s"}},
		{"negative rate", map[string]string{"RATE_RPS": "-1"}},
		{"zero burst", map[string]string{"RATE_BURST": "0"}},
		{"receipt ttl", map[string]string{"RECEIPT_TTL": "-1h"}},
		{"sampler out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail for %s", tc.name)
			}
		})
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":          "/",
		"/":         "/",
		"api":       "/api",
		"/api/pos/": "/api/pos",
		" /v1 ":     "/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG", "on")
	if !getbool("FLAG", false) {
		t.Fatalf("on should be true")
	}
	t.Setenv("FLAG", "off")
	if getbool("FLAG", true) {
		t.Fatalf("off should be false")
	}
	t.Setenv("FLAG", "maybe")
	if !getbool("FLAG", true) {
		t.Fatalf("unparseable keeps the default")
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("empty input should be nil, got %v", got)
	}
	got := splitCSV(" a , ,b,, c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV = %v", got)
	}
}
