package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tavolo/pos-relay/internal/config"
	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/http/handlers"
	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/pos",
		Pull: config.PullConfig{
			DefaultLimit:  50,
			MaxLimit:      200,
			DefaultStatus: "confirmed",
			Lookback:      60 * 24 * time.Hour,
		},
		Heartbeat: config.HeartbeatConfig{
			DisconnectedAfter: 10 * time.Minute,
			OfflineAfter:      60 * time.Minute,
		},
		WS: config.WSConfig{
			ReadLimit:    64 << 10,
			WriteTimeout: 5 * time.Second,
		},
		RateRPS:    1000,
		RateBurst:  1000,
		ReceiptTTL: time.Hour,
		OTEL:       config.OTELConfig{ServiceName: "pos-relay-test"},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r, db
}

func seedAPITenant(t *testing.T, db *gorm.DB) *domain.Tenant {
	t.Helper()
	tn, err := repo.CreateTenant(context.Background(), db, "Kitchen", "kitchen", "k-secret")
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tn
}

func doJSON(t *testing.T, r *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body handlers.HealthResponse
	decodeBody(t, w, &body)
	if body.Status != "ok" || body.Connections != 0 {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if body.Timestamp == "" {
		t.Fatalf("health body missing timestamp")
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body handlers.ErrorResponse
	decodeBody(t, w, &body)
	if body.Code != handlers.ErrCodeNotFound {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestPullOrders_RequiresTenantParam(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders", "", bearer("whatever"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body handlers.ErrorResponse
	decodeBody(t, w, &body)
	if body.Code != handlers.ErrCodeBadRequest {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestPullOrders_RejectsBadCredentials(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	// No Authorization header at all.
	w := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d", w.Code)
	}

	// Wrong key.
	w = doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", bearer("wrong"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d", w.Code)
	}
	var body handlers.ErrorResponse
	decodeBody(t, w, &body)
	if body.Code != handlers.ErrCodeUnauthorized {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestPullOrders_DefaultWindow(t *testing.T) {
	r, db := newTestRouter(t)
	tn := seedAPITenant(t, db)

	base := time.Now().UTC().Add(-time.Hour)
	printed := domain.PrintStatusPrinted
	// 60 confirmed orders needing attention; the default limit keeps 50.
	for i := 0; i < 60; i++ {
		o := &domain.Order{
			ID:        fmt.Sprintf("o%02d", i),
			TenantID:  tn.ID,
			Status:    "confirmed",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(o).Error; err != nil {
			t.Fatalf("seed order %d: %v", i, err)
		}
	}
	// Already printed: excluded from the default view.
	if err := db.Create(&domain.Order{
		ID: "done", TenantID: tn.ID, Status: "confirmed",
		PrintStatus: &printed, CreatedAt: base,
	}).Error; err != nil {
		t.Fatalf("seed printed order: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body handlers.PullOrdersResponse
	decodeBody(t, w, &body)
	if !body.Success || body.Count != 50 || len(body.Orders) != 50 {
		t.Fatalf("count = %d (success=%v), want 50", body.Count, body.Success)
	}
	if body.Tenant.Slug != "kitchen" {
		t.Fatalf("tenant block: %+v", body.Tenant)
	}
	if body.Filters.Status != "confirmed" || body.Filters.Limit != 50 {
		t.Fatalf("filters echo: %+v", body.Filters)
	}
	// Oldest first: the window starts at o00 and the printed order is absent.
	if body.Orders[0].ID != "o00" || body.Orders[49].ID != "o49" {
		t.Fatalf("ordering: first=%s last=%s", body.Orders[0].ID, body.Orders[49].ID)
	}
	for _, o := range body.Orders {
		if o.ID == "done" {
			t.Fatalf("printed order leaked into the needs-attention view")
		}
	}
	if body.LastModified == nil {
		t.Fatalf("lastModified missing")
	}
	if w.Header().Get("ETag") == "" || w.Header().Get("Last-Modified") == "" {
		t.Fatalf("freshness headers missing: %v", w.Header())
	}
}

func TestPullOrders_ConditionalFetch(t *testing.T) {
	r, db := newTestRouter(t)
	tn := seedAPITenant(t, db)
	if err := db.Create(&domain.Order{
		ID: "o1", TenantID: tn.ID, Status: "confirmed",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	first := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", bearer("k-secret"))
	if first.Code != http.StatusOK {
		t.Fatalf("first fetch: status = %d", first.Code)
	}
	etag := first.Header().Get("ETag")
	lastMod := first.Header().Get("Last-Modified")
	if etag == "" || lastMod == "" {
		t.Fatalf("freshness headers missing")
	}
	var firstBody handlers.PullOrdersResponse
	decodeBody(t, first, &firstBody)

	// Same result set plus a matching ETag: no body.
	hdrs := bearer("k-secret")
	hdrs["If-None-Match"] = etag
	w := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", hdrs)
	if w.Code != http.StatusNotModified {
		t.Fatalf("If-None-Match: status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Fatalf("304 must have an empty body, got %q", w.Body.String())
	}
	if w.Header().Get("ETag") != etag {
		t.Fatalf("304 must carry freshness headers")
	}

	// HTTP-date form.
	hdrs = bearer("k-secret")
	hdrs["If-Modified-Since"] = lastMod
	w = doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", hdrs)
	if w.Code != http.StatusNotModified {
		t.Fatalf("If-Modified-Since (http date): status = %d", w.Code)
	}

	// Clients may echo the body's RFC 3339 lastModified value instead.
	hdrs = bearer("k-secret")
	hdrs["If-Modified-Since"] = *firstBody.LastModified
	w = doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", hdrs)
	if w.Code != http.StatusNotModified {
		t.Fatalf("If-Modified-Since (rfc3339): status = %d", w.Code)
	}

	// A newer order invalidates both validators.
	if err := db.Create(&domain.Order{
		ID: "o2", TenantID: tn.ID, Status: "confirmed",
		CreatedAt: time.Now().UTC().Add(time.Minute),
	}).Error; err != nil {
		t.Fatalf("seed newer order: %v", err)
	}
	hdrs = bearer("k-secret")
	hdrs["If-None-Match"] = etag
	hdrs["If-Modified-Since"] = lastMod
	w = doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", hdrs)
	if w.Code != http.StatusOK {
		t.Fatalf("stale validators must yield a full response, got %d", w.Code)
	}
	var refreshed handlers.PullOrdersResponse
	decodeBody(t, w, &refreshed)
	if refreshed.Count != 2 {
		t.Fatalf("refreshed count = %d, want 2", refreshed.Count)
	}
}

func TestPullOrders_RejectsBadSince(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	w := doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen&since=yesterday", "", bearer("k-secret"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestDeviceLifecycle(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	// Provision a terminal with the tenant secret.
	w := doJSON(t, r, http.MethodPost, "/api/pos/devices?tenant=kitchen",
		`{"device_id":"Front-Counter"}`, bearer("k-secret"))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	var reg handlers.RegisterDeviceResponse
	decodeBody(t, w, &reg)
	if !reg.Success || reg.APIKey == "" || !reg.IsActive {
		t.Fatalf("unexpected registration body: %+v", reg)
	}
	if reg.DeviceID != "front-counter" || reg.Name != "Front Counter" {
		t.Fatalf("normalization: %+v", reg)
	}

	// Same device_id again: conflict.
	w = doJSON(t, r, http.MethodPost, "/api/pos/devices?tenant=kitchen",
		`{"device_id":"front-counter"}`, bearer("k-secret"))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d", w.Code)
	}

	// The issued key authenticates pulls and identifies the device.
	w = doJSON(t, r, http.MethodGet, "/api/pos/pull-orders?tenant=kitchen", "", bearer(reg.APIKey))
	if w.Code != http.StatusOK {
		t.Fatalf("device pull: status = %d, body = %s", w.Code, w.Body.String())
	}
	var pull handlers.PullOrdersResponse
	decodeBody(t, w, &pull)
	if pull.DeviceID != "front-counter" {
		t.Fatalf("device identity not echoed: %+v", pull)
	}

	// The pull touched the heartbeat, so the device now reads online.
	w = doJSON(t, r, http.MethodGet, "/api/pos/devices/health?tenant=kitchen", "", bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("health: status = %d", w.Code)
	}
	var health handlers.DeviceHealthResponse
	decodeBody(t, w, &health)
	if health.Count != 1 || health.Devices[0].Status != domain.DeviceOnline {
		t.Fatalf("unexpected health body: %+v", health)
	}

	// A registration body without device_id is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/pos/devices?tenant=kitchen", `{}`, bearer("k-secret"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing device_id: status = %d", w.Code)
	}
}

func TestSetPrintStatus_Endpoint(t *testing.T) {
	r, db := newTestRouter(t)
	tn := seedAPITenant(t, db)
	if err := db.Create(&domain.Order{ID: "o1", TenantID: tn.ID, Status: "confirmed"}).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/pos/orders/o1/print-status?tenant=kitchen",
		`{"print_status":"printed"}`, bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got domain.Order
	if err := db.First(&got, "id = ?", "o1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.PrintStatus == nil || *got.PrintStatus != domain.PrintStatusPrinted {
		t.Fatalf("print status not applied: %+v", got.PrintStatus)
	}

	// printed is terminal; regressing to pending is a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/pos/orders/o1/print-status?tenant=kitchen",
		`{"print_status":"pending"}`, bearer("k-secret"))
	if w.Code != http.StatusConflict {
		t.Fatalf("regression: status = %d, body = %s", w.Code, w.Body.String())
	}
	var envelope handlers.ErrorResponse
	decodeBody(t, w, &envelope)
	if envelope.Code != handlers.ErrCodeInvalidTransition {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}

	// Unknown order.
	w = doJSON(t, r, http.MethodPost, "/api/pos/orders/ghost/print-status?tenant=kitchen",
		`{"print_status":"printed"}`, bearer("k-secret"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: status = %d", w.Code)
	}
}

func TestBroadcastEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	// No live terminals: still a success, delivery happens via pull later.
	w := doJSON(t, r, http.MethodPost, "/api/pos/broadcast?tenant=kitchen",
		`{"type":"order_ready","orderId":"o1"}`, bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body handlers.BroadcastResponse
	decodeBody(t, w, &body)
	if !body.Success || body.Attempted != 0 || body.Delivered != 0 || body.Replayed {
		t.Fatalf("unexpected outcome: %+v", body)
	}

	// A missing event type is a client error.
	w = doJSON(t, r, http.MethodPost, "/api/pos/broadcast?tenant=kitchen",
		`{"orderId":"o1"}`, bearer("k-secret"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing type: status = %d", w.Code)
	}
}

func TestBroadcastEndpoint_IdempotentReplay(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	hdrs := bearer("k-secret")
	hdrs[middleware.HeaderIdempotencyKey] = "retry-abc:1"

	w := doJSON(t, r, http.MethodPost, "/api/pos/broadcast?tenant=kitchen",
		`{"type":"order_ready","orderId":"o1"}`, hdrs)
	if w.Code != http.StatusOK {
		t.Fatalf("first: status = %d, body = %s", w.Code, w.Body.String())
	}
	var first handlers.BroadcastResponse
	decodeBody(t, w, &first)
	if first.Replayed {
		t.Fatalf("first request must not be a replay")
	}

	w = doJSON(t, r, http.MethodPost, "/api/pos/broadcast?tenant=kitchen",
		`{"type":"order_ready","orderId":"o1"}`, hdrs)
	if w.Code != http.StatusOK {
		t.Fatalf("retry: status = %d, body = %s", w.Code, w.Body.String())
	}
	var retry handlers.BroadcastResponse
	decodeBody(t, w, &retry)
	if !retry.Replayed {
		t.Fatalf("retry with the same key must replay the stored outcome: %+v", retry)
	}
	if retry.Attempted != first.Attempted || retry.Delivered != first.Delivered {
		t.Fatalf("replayed outcome differs: first=%+v retry=%+v", first, retry)
	}

	// The audit log holds exactly one broadcast row; the replay wrote nothing.
	var count int64
	if err := db.Model(&domain.SyncLog{}).Where("event_type = ?", "broadcast").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("broadcast audit rows = %d, want 1", count)
	}
}

func TestBroadcastEndpoint_RejectsMalformedIdempotencyKey(t *testing.T) {
	r, db := newTestRouter(t)
	seedAPITenant(t, db)

	hdrs := bearer("k-secret")
	hdrs[middleware.HeaderIdempotencyKey] = "bad key with spaces"

	w := doJSON(t, r, http.MethodPost, "/api/pos/broadcast?tenant=kitchen",
		`{"type":"order_ready"}`, hdrs)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSyncLogsEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	tn := seedAPITenant(t, db)
	if err := db.Create(&domain.Order{ID: "o1", TenantID: tn.ID, Status: "confirmed"}).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	// A print-status update leaves an audit row behind.
	w := doJSON(t, r, http.MethodPost, "/api/pos/orders/o1/print-status?tenant=kitchen",
		`{"print_status":"sent_to_pos"}`, bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("print-status: status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/pos/sync-logs?tenant=kitchen", "", bearer("k-secret"))
	if w.Code != http.StatusOK {
		t.Fatalf("sync-logs: status = %d, body = %s", w.Code, w.Body.String())
	}
	var body handlers.SyncLogsResponse
	decodeBody(t, w, &body)
	if !body.Success || body.Count != 1 || body.Logs[0].EventType != "print_status" {
		t.Fatalf("unexpected body: %+v", body)
	}

	// Unauthenticated reads are rejected.
	w = doJSON(t, r, http.MethodGet, "/api/pos/sync-logs?tenant=kitchen", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status = %d", w.Code)
	}
}
