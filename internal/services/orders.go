// OrderService performs guarded writes to the relay-owned delivery columns of
// the order table. The commerce lifecycle stays with the web tier; the relay
// only moves an order through its print-status machine and records which
// terminal touched it.

package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// OrderService applies print-status updates reported by terminals.
type OrderService struct {
	DB   *gorm.DB
	Logs *SyncLogger
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, logs *SyncLogger) *OrderService {
	return &OrderService{DB: db, Logs: logs}
}

// SetPrintStatus moves an order to the requested print status on behalf of
// the authenticated caller. deviceID may be empty for tenant-level callers;
// errMsg is recorded only when moving to failed.
//
// Returns ErrOrderNotFound when the order is missing or owned by another
// tenant, and ErrInvalidPrintStatus for unknown values or forbidden
// transitions.
func (s *OrderService) SetPrintStatus(ctx context.Context, tenant *domain.Tenant, orderID string, to domain.PrintStatus, deviceID, errMsg string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPrintStatus, to)
	}

	err := repo.UpdatePrintStatus(ctx, s.DB, tenant.ID, orderID, to, deviceID, errMsg)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repo.ErrInvalidTransition):
		s.Logs.Log(ctx, tenant.ID, "print_status", map[string]any{
			"orderId":   orderID,
			"to":        to,
			"device_id": deviceID,
			"error":     err.Error(),
		}, SyncStatusFailed)
		return fmt.Errorf("%w: %v", ErrInvalidPrintStatus, err)
	case err != nil:
		return err
	}

	s.Logs.Log(ctx, tenant.ID, "print_status", map[string]any{
		"orderId":   orderID,
		"to":        to,
		"device_id": deviceID,
	}, SyncStatusSuccess)
	return nil
}
