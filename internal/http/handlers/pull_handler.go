// PullHandler is the HTTP adapter for the pull/poll fallback endpoint. The
// handler stays transport-thin: it authenticates the caller, parses filters,
// delegates to PullService, and maps the result onto the wire contract
// (conditional 304s, freshness headers, the enriched JSON body).

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/services"
	"github.com/tavolo/pos-relay/internal/utils"
)

// PullHandler serves GET /pull-orders.
type PullHandler struct {
	Auth *services.Authenticator
	Pull *services.PullService
}

// NewPullHandler constructs a PullHandler.
func NewPullHandler(auth *services.Authenticator, pull *services.PullService) *PullHandler {
	return &PullHandler{Auth: auth, Pull: pull}
}

// pullTenant is the tenant block of the pull response body.
type pullTenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// pullFilters echoes the effective filter set back to the caller.
type pullFilters struct {
	Status     string  `json:"status"`
	Limit      int     `json:"limit"`
	Since      *string `json:"since"`
	IncludeAll bool    `json:"include_all"`
}

// pullPerformance carries server-side timing for POS-side diagnostics.
type pullPerformance struct {
	QueryMS int64 `json:"query_ms"`
	TotalMS int64 `json:"total_ms"`
}

// PullOrdersResponse is the 200 body of the pull endpoint.
type PullOrdersResponse struct {
	Success      bool            `json:"success"`
	Tenant       pullTenant      `json:"tenant"`
	Orders       []domain.Order  `json:"orders"`
	Count        int             `json:"count"`
	Filters      pullFilters     `json:"filters"`
	Timestamp    string          `json:"timestamp"`
	LastModified *string         `json:"lastModified"`
	DeviceID     string          `json:"device_id,omitempty"`
	Performance  pullPerformance `json:"performance"`
}

// PullOrders handles GET /pull-orders.
//
// Auth: Authorization: Bearer <api_key>, resolved device-first with the
// tenant shared secret as fallback. A device-level match touches the device's
// heartbeat timestamps as a side effect.
//
// Conditional fetch: If-Modified-Since and If-None-Match are both honored;
// either one matching short-circuits to 304 with no body.
//
// @Summary      Pull pending orders
// @Description  Returns the tenant's orders that still need POS attention, oldest first, enriched with line items and add-ons.
// @Tags         pull
// @Produce      json
// @Param        tenant       query   string  true   "Tenant slug"
// @Param        status       query   string  false  "Commerce status filter"  default(confirmed)
// @Param        limit        query   int     false  "Max orders returned"     default(50)
// @Param        since        query   string  false  "RFC 3339 lower bound on created/updated time"
// @Param        include_all  query   bool    false  "Drop the needs-attention filter"
// @Param        Authorization  header  string  true  "Bearer API key"
// @Success      200  {object}  PullOrdersResponse
// @Success      304  "Not modified"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  map[string]any
// @Router       /pull-orders [get]
func (h *PullHandler) PullOrders(c *gin.Context) {
	start := time.Now()

	tenantSlug := c.Query("tenant")
	if tenantSlug == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tenant query parameter is required")
		return
	}

	token := services.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or malformed Authorization header")
		return
	}

	id, err := h.Auth.Authenticate(c.Request.Context(), tenantSlug, token)
	if err != nil {
		switch err {
		case services.ErrUnauthorized, services.ErrTenantRequired:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid API key")
		default:
			pullServerError(c, err)
		}
		return
	}
	middleware.SetIdentity(c, id.Tenant.Slug, id.DeviceID())

	since, err := utils.ParseTimeParam(c.Query("since"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp")
		return
	}

	res, err := h.Pull.Pull(c.Request.Context(), id.Tenant.ID, services.PullQuery{
		Status:     c.Query("status"),
		Limit:      utils.AtoiDefault(c.Query("limit"), 0),
		Since:      since,
		IncludeAll: utils.ParseBoolParam(c.Query("include_all")),
	})
	if err != nil {
		pullServerError(c, err)
		return
	}

	// Freshness headers go on both 304 and 200 responses.
	var lastModified *string
	if !res.LastModified.IsZero() {
		c.Header("Last-Modified", res.LastModified.UTC().Format(http.TimeFormat))
		s := res.LastModified.UTC().Format(time.RFC3339)
		lastModified = &s
	}
	c.Header("ETag", res.ETag)
	c.Header("Cache-Control", "no-cache, must-revalidate")

	if notModified(c, res.LastModified, res.ETag) {
		c.Status(http.StatusNotModified)
		return
	}

	var sinceEcho *string
	if res.Filters.Since != nil {
		s := res.Filters.Since.UTC().Format(time.RFC3339)
		sinceEcho = &s
	}

	ok(c, http.StatusOK, PullOrdersResponse{
		Success: true,
		Tenant: pullTenant{
			ID:   id.Tenant.ID,
			Name: id.Tenant.Name,
			Slug: id.Tenant.Slug,
		},
		Orders: res.Orders,
		Count:  len(res.Orders),
		Filters: pullFilters{
			Status:     res.Filters.Status,
			Limit:      res.Filters.Limit,
			Since:      sinceEcho,
			IncludeAll: res.Filters.IncludeAll,
		},
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		LastModified: lastModified,
		DeviceID:     id.DeviceID(),
		Performance: pullPerformance{
			QueryMS: res.QueryDuration.Milliseconds(),
			TotalMS: time.Since(start).Milliseconds(),
		},
	})
}

// notModified reports whether the request's conditional headers match the
// computed freshness values. Either header matching is sufficient.
func notModified(c *gin.Context, lastModified time.Time, etag string) bool {
	if inm := c.GetHeader("If-None-Match"); inm != "" && etag != "" && inm == etag {
		return true
	}
	ims := c.GetHeader("If-Modified-Since")
	if ims == "" || lastModified.IsZero() {
		return false
	}
	t, err := http.ParseTime(ims)
	if err != nil {
		// Clients echo the body's lastModified value, which is RFC 3339.
		t, err = time.Parse(time.RFC3339, ims)
	}
	if err != nil {
		return false
	}
	// HTTP dates have second precision; compare at that granularity.
	return !lastModified.Truncate(time.Second).After(t)
}

// pullServerError writes the pull endpoint's 500 contract: a generic message
// with the underlying error attached for operator diagnosis.
func pullServerError(c *gin.Context, err error) {
	lg := middleware.LoggerFrom(c)
	lg.Error().Err(err).Msg("pull orders failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "failed to fetch orders",
		"details": err.Error(),
	})
}
