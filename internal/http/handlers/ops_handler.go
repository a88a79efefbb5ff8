// OpsHandler is the operational surface: process liveness, the manual
// broadcast trigger the web tier calls when an order becomes ready, and the
// audit-log read endpoint.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/services"
	"github.com/tavolo/pos-relay/internal/utils"
)

// ConnCounter exposes the push hub's live connection counts; implemented by
// relay.Registry.
type ConnCounter interface {
	Total() int
	Counts() map[string]int
}

// OpsHandler serves the operational endpoints.
type OpsHandler struct {
	Auth      *services.Authenticator
	Broadcast *services.BroadcastService
	SyncLogs  *services.SyncLogReader
	Conns     ConnCounter
	Version   string
}

// NewOpsHandler constructs an OpsHandler.
func NewOpsHandler(auth *services.Authenticator, broadcast *services.BroadcastService, syncLogs *services.SyncLogReader, conns ConnCounter, version string) *OpsHandler {
	return &OpsHandler{Auth: auth, Broadcast: broadcast, SyncLogs: syncLogs, Conns: conns, Version: version}
}

// HealthResponse is the liveness body of GET /health.
type HealthResponse struct {
	Status      string         `json:"status"`
	Version     string         `json:"version,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Connections int            `json:"connections"`
	Tenants     map[string]int `json:"tenants"`
}

// Healthz handles GET /health. Unauthenticated liveness probe; the per-tenant
// connection counts double as a cheap push-channel dashboard.
//
// @Summary      Liveness probe
// @Tags         ops
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *OpsHandler) Healthz(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:      "ok",
		Version:     h.Version,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Connections: h.Conns.Total(),
		Tenants:     h.Conns.Counts(),
	})
}

// BroadcastRequest is the JSON body of POST /broadcast: the event to fan out,
// verbatim. A "type" field is required; everything else is forwarded as-is.
type BroadcastRequest map[string]any

// BroadcastResponse reports the fan-out outcome.
type BroadcastResponse struct {
	Success   bool   `json:"success"`
	Tenant    string `json:"tenant"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
	Replayed  bool   `json:"replayed"`
	Timestamp string `json:"timestamp"`
}

// TriggerBroadcast handles POST /broadcast.
//
// Zero live connections is a success with delivered=0; offline terminals
// catch up via the pull endpoint. Retries carrying the same Idempotency-Key
// replay the stored outcome instead of fanning out again.
//
// @Summary      Broadcast an event to a tenant's terminals
// @Tags         ops
// @Accept       json
// @Produce      json
// @Param        tenant           query   string  true   "Tenant slug"
// @Param        Authorization    header  string  true   "Bearer tenant API key"
// @Param        Idempotency-Key  header  string  false  "Dedupe key for safe retries"
// @Param        body             body    object  true   "Event payload; must contain a type field"
// @Success      200  {object}  BroadcastResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /broadcast [post]
func (h *OpsHandler) TriggerBroadcast(c *gin.Context) {
	id, ok2 := h.authenticate(c)
	if !ok2 {
		return
	}

	var event BroadcastRequest
	if err := c.ShouldBindJSON(&event); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)

	outcome, err := h.Broadcast.Broadcast(c.Request.Context(), id.Tenant, event, idemKey)
	switch {
	case errors.Is(err, services.ErrEventTypeRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "event type is required")
		return
	case err != nil:
		failWithDetails(c, http.StatusInternalServerError, ErrCodeBroadcastFailed, "broadcast failed", err.Error())
		return
	}

	ok(c, http.StatusOK, BroadcastResponse{
		Success:   true,
		Tenant:    id.Tenant.Slug,
		Attempted: outcome.Attempted,
		Delivered: outcome.Delivered,
		Replayed:  outcome.Replayed,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// SyncLogsResponse is the 200 body of GET /sync-logs.
type SyncLogsResponse struct {
	Success bool             `json:"success"`
	Tenant  string           `json:"tenant"`
	Logs    []domain.SyncLog `json:"logs"`
	Count   int              `json:"count"`
}

// ListSyncLogs handles GET /sync-logs: the tenant's most recent audit rows,
// newest first.
//
// @Summary      Read the sync audit log
// @Tags         ops
// @Produce      json
// @Param        tenant         query   string  true   "Tenant slug"
// @Param        limit          query   int     false  "Max rows"  default(50)
// @Param        Authorization  header  string  true   "Bearer tenant API key"
// @Success      200  {object}  SyncLogsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /sync-logs [get]
func (h *OpsHandler) ListSyncLogs(c *gin.Context) {
	id, ok2 := h.authenticate(c)
	if !ok2 {
		return
	}

	logs, err := h.SyncLogs.List(c.Request.Context(), id.Tenant.ID, utils.AtoiDefault(c.Query("limit"), 0))
	if err != nil {
		failWithDetails(c, http.StatusInternalServerError, ErrCodeInternal, "could not read sync logs", err.Error())
		return
	}

	ok(c, http.StatusOK, SyncLogsResponse{
		Success: true,
		Tenant:  id.Tenant.Slug,
		Logs:    logs,
		Count:   len(logs),
	})
}

// authenticate resolves the tenant shared secret and stamps the identity for
// the access log. Writes the error response itself.
func (h *OpsHandler) authenticate(c *gin.Context) (*services.Identity, bool) {
	tenantSlug := c.Query("tenant")
	if tenantSlug == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tenant query parameter is required")
		return nil, false
	}
	token := services.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or malformed Authorization header")
		return nil, false
	}
	id, err := h.Auth.Authenticate(c.Request.Context(), tenantSlug, token)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) || errors.Is(err, services.ErrTenantRequired) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid API key")
		} else {
			failWithDetails(c, http.StatusInternalServerError, ErrCodeInternal, "authentication failed", err.Error())
		}
		return nil, false
	}
	middleware.SetIdentity(c, id.Tenant.Slug, "")
	return id, true
}
