// OrderHandler covers print-status reporting: terminals call back after
// attempting to print an order, moving it through the delivery lifecycle.
// Accepts the same credentials as the pull endpoint so a terminal reports
// with its own key.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/http/middleware"
	"github.com/tavolo/pos-relay/internal/services"
)

// OrderHandler serves order delivery-state updates.
type OrderHandler struct {
	Auth   *services.Authenticator
	Orders *services.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(auth *services.Authenticator, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{Auth: auth, Orders: orders}
}

// PrintStatusRequest is the JSON body of POST /orders/{id}/print-status.
type PrintStatusRequest struct {
	PrintStatus string `json:"print_status" binding:"required" example:"printed"`
	// Error describes the failure; recorded only when print_status is "failed".
	Error string `json:"error" example:"printer out of paper"`
}

// PrintStatusResponse acknowledges the applied update.
type PrintStatusResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id"`
	PrintStatus string `json:"print_status"`
	DeviceID    string `json:"device_id,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// SetPrintStatus handles POST /orders/{id}/print-status.
//
// @Summary      Report print status
// @Description  Moves an order through its print lifecycle (pending, sent_to_pos, printed, failed) on behalf of the reporting terminal.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id             path    string              true  "Order ID"
// @Param        tenant         query   string              true  "Tenant slug"
// @Param        Authorization  header  string              true  "Bearer API key"
// @Param        body           body    PrintStatusRequest  true  "New print status"
// @Success      200  {object}  PrintStatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /orders/{id}/print-status [post]
func (h *OrderHandler) SetPrintStatus(c *gin.Context) {
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
		if errors.Is(err, services.ErrUnauthorized) || errors.Is(err, services.ErrTenantRequired) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid API key")
		} else {
			failWithDetails(c, http.StatusInternalServerError, ErrCodeInternal, "authentication failed", err.Error())
		}
		return
	}
	middleware.SetIdentity(c, id.Tenant.Slug, id.DeviceID())

	orderID := c.Param("id")

	var req PrintStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "print_status is required")
		return
	}

	to := domain.PrintStatus(req.PrintStatus)
	err = h.Orders.SetPrintStatus(c.Request.Context(), id.Tenant, orderID, to, id.DeviceID(), req.Error)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		return
	case errors.Is(err, services.ErrInvalidPrintStatus):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, err.Error())
		return
	case err != nil:
		failWithDetails(c, http.StatusInternalServerError, ErrCodeInternal, "could not update print status", err.Error())
		return
	}

	ok(c, http.StatusOK, PrintStatusResponse{
		Success:     true,
		OrderID:     orderID,
		PrintStatus: string(to),
		DeviceID:    id.DeviceID(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
