// Package httpapi wires the HTTP transport (Gin) to the relay's services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, idempotency, rate limiting, CORS, and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The push channel and the REST surface share one engine and one
//     middleware stack, with the websocket route excluded from compression
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tavolo/pos-relay/docs"
	"github.com/tavolo/pos-relay/internal/config"
	"github.com/tavolo/pos-relay/internal/http/handlers"
	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/relay"
	"github.com/tavolo/pos-relay/internal/repo"
	"github.com/tavolo/pos-relay/internal/services"
)

// Version is stamped at build time via -ldflags and surfaced on /health.
var Version = "dev"

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the push server so callers (main, tests) can reach the
// hub directly.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (websocket and metrics routes excluded)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per device/IP, bypass on replay)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) *relay.Server {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			relay.HeaderAPIKey,
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression. The websocket upgrade must not pass through a
	// wrapping writer, and /metrics is scraped locally.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`^/ws/.*`, `^/metrics`}),
	))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting). The lookup resolves
	// the tenant slug to its id; an unknown slug simply means no receipt.
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, tenantSlug, key string, now time.Time) (bool, error) {
			t, err := repo.GetTenantBySlug(ctx, db, tenantSlug)
			if err != nil {
				return false, nil
			}
			rec, err := repo.GetBroadcastReceipt(ctx, db, t.ID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per device/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByDeviceOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured). POS
	// terminals are backend integrations, but tenant dashboards hit the
	// health and sync-log endpoints from browsers.
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		relay.HeaderAPIKey, middleware.HeaderIdempotencyKey,
		"If-Modified-Since", "If-None-Match",
	}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Last-Modified"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← repo/db/hub
	deviceAuth := services.NewAuthenticator(db)
	tenantAuth := services.NewTenantAuthenticator(db)
	syncLogger := services.NewSyncLogger(db)

	hub := relay.NewServer(tenantAuth, syncLogger, cfg.WS)
	middleware.RegisterConnectionsGauge(hub.Registry.Total)

	pullH := handlers.NewPullHandler(deviceAuth, services.NewPullService(db, cfg.Pull))
	deviceH := handlers.NewDeviceHandler(tenantAuth,
		services.NewDeviceService(db),
		services.NewHealthService(db, cfg.Heartbeat))
	orderH := handlers.NewOrderHandler(deviceAuth, services.NewOrderService(db, syncLogger))
	opsH := handlers.NewOpsHandler(tenantAuth,
		services.NewBroadcastService(db, hub, syncLogger, cfg.ReceiptTTL),
		services.NewSyncLogReader(db),
		hub.Registry,
		Version)

	// Liveness/health with live push-channel counts
	r.GET("/health", opsH.Healthz)

	// Push channel
	r.GET("/ws/pos/:tenant", hub.HandleConnection)

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Pull/poll fallback and admin API
	apiBase := cfg.APIBasePath // e.g. "/api/pos"
	api := groupWithPrefix(r, apiBase)
	{
		// Orders
		api.GET("/pull-orders", pullH.PullOrders)
		api.POST("/orders/:id/print-status", orderH.SetPrintStatus)

		// Devices
		api.POST("/devices", deviceH.RegisterDevice)
		api.GET("/devices/health", deviceH.DeviceHealth)

		// Ops
		api.POST("/broadcast", opsH.TriggerBroadcast)
		api.GET("/sync-logs", opsH.ListSyncLogs)
	}

	return hub
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
