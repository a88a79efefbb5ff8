// DeviceHandler serves the terminal provisioning and health endpoints. Both
// require the tenant-level shared secret: provisioning issues device
// credentials, so a device key must never be able to mint further keys.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/services"
)

// DeviceHandler serves the device provisioning and health surface.
type DeviceHandler struct {
	Auth    *services.Authenticator
	Devices *services.DeviceService
	Health  *services.HealthService
}

// NewDeviceHandler constructs a DeviceHandler.
func NewDeviceHandler(auth *services.Authenticator, devices *services.DeviceService, health *services.HealthService) *DeviceHandler {
	return &DeviceHandler{Auth: auth, Devices: devices, Health: health}
}

// RegisterDeviceRequest is the JSON body of POST /devices.
type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required" example:"front-counter"`
	Name     string `json:"name"      example:"Front Counter"`
}

// RegisterDeviceResponse returns the newly issued credential. The API key is
// shown exactly once, at registration.
type RegisterDeviceResponse struct {
	Success  bool   `json:"success"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	APIKey   string `json:"api_key"`
	IsActive bool   `json:"is_active"`
}

// RegisterDevice handles POST /devices.
//
// @Summary      Register a POS terminal
// @Description  Creates a device for the tenant and issues its per-device API key.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        tenant         query   string                 true  "Tenant slug"
// @Param        Authorization  header  string                 true  "Bearer tenant API key"
// @Param        body           body    RegisterDeviceRequest  true  "Device to register"
// @Success      201  {object}  RegisterDeviceResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /devices [post]
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	id, ok2 := h.authenticate(c)
	if !ok2 {
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "device_id is required")
		return
	}

	d, err := h.Devices.Register(c.Request.Context(), id.Tenant.ID, req.DeviceID, req.Name)
	switch {
	case errors.Is(err, services.ErrInvalidDeviceID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrDeviceExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "device_id already registered for this tenant")
		return
	case err != nil:
		failWithDetails(c, http.StatusInternalServerError, ErrCodeRegisterFailed, "could not register device", err.Error())
		return
	}

	ok(c, http.StatusCreated, RegisterDeviceResponse{
		Success:  true,
		DeviceID: d.DeviceID,
		Name:     d.Name,
		APIKey:   d.APIKey,
		IsActive: d.IsActive,
	})
}

// DeviceHealthResponse is the 200 body of GET /devices/health.
type DeviceHealthResponse struct {
	Success   bool                    `json:"success"`
	Tenant    string                  `json:"tenant"`
	Devices   []services.DeviceStatus `json:"devices"`
	Count     int                     `json:"count"`
	Timestamp string                  `json:"timestamp"`
}

// DeviceHealth handles GET /devices/health.
//
// Health is recomputed from stored timestamps on every read; nothing is
// cached and nothing is written.
//
// @Summary      Device health
// @Description  Classifies every registered terminal of the tenant as online, disconnected, offline, or disabled.
// @Tags         devices
// @Produce      json
// @Param        tenant         query   string  true  "Tenant slug"
// @Param        Authorization  header  string  true  "Bearer tenant API key"
// @Success      200  {object}  DeviceHealthResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /devices/health [get]
func (h *DeviceHandler) DeviceHealth(c *gin.Context) {
	id, ok2 := h.authenticate(c)
	if !ok2 {
		return
	}

	statuses, err := h.Health.ListDeviceStatuses(c.Request.Context(), id.Tenant.ID, time.Now().UTC())
	if err != nil {
		failWithDetails(c, http.StatusInternalServerError, ErrCodeInternal, "could not read device health", err.Error())
		return
	}

	ok(c, http.StatusOK, DeviceHealthResponse{
		Success:   true,
		Tenant:    id.Tenant.Slug,
		Devices:   statuses,
		Count:     len(statuses),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// authenticate resolves the tenant credential for the admin surface and
// stamps the identity for the access log. Writes the error response itself.
func (h *DeviceHandler) authenticate(c *gin.Context) (*services.Identity, bool) {
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
	middleware.SetIdentity(c, id.Tenant.Slug, id.DeviceID())
	return id, true
}
