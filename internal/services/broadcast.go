// BroadcastService coordinates a tenant fan-out: it validates the event,
// deduplicates retried manual requests via broadcast receipts, hands the
// event to the push hub, and records the delivery bookkeeping (order
// websocket flags, audit rows).
//
// The fan-out itself stays fire-and-forget: there is deliberately no
// acknowledgment-based retry and no queued redelivery here. Terminals that
// miss a push catch up through the pull endpoint, whose "still pending" query
// is naturally idempotent; adding push-path retries would create
// duplicate-delivery semantics inconsistent with that contract.

package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// Broadcaster is the narrow hub capability this service needs; implemented
// by relay.Server.
type Broadcaster interface {
	BroadcastToTenant(tenant string, event any) (attempted, delivered int)
}

// BroadcastOutcome reports one fan-out.
type BroadcastOutcome struct {
	Attempted int  `json:"attempted"`
	Delivered int  `json:"delivered"`
	Replayed  bool `json:"replayed"`
}

// BroadcastService triggers tenant fan-outs and records their side effects.
type BroadcastService struct {
	DB         *gorm.DB
	Hub        Broadcaster
	Logs       *SyncLogger
	ReceiptTTL time.Duration
}

// NewBroadcastService constructs a BroadcastService.
func NewBroadcastService(db *gorm.DB, hub Broadcaster, logs *SyncLogger, receiptTTL time.Duration) *BroadcastService {
	return &BroadcastService{DB: db, Hub: hub, Logs: logs, ReceiptTTL: receiptTTL}
}

// Broadcast fans event out to every live connection of the tenant.
//
// When idemKey is non-empty and a non-expired receipt exists for
// (tenant, idemKey), the stored outcome is replayed without re-running the
// fan-out. Events of type "order_ready" carrying an orderId additionally mark
// the order's websocket bookkeeping when at least one terminal received the
// frame.
func (s *BroadcastService) Broadcast(ctx context.Context, tenant *domain.Tenant, event map[string]any, idemKey string) (*BroadcastOutcome, error) {
	evType, _ := event["type"].(string)
	if evType == "" {
		return nil, ErrEventTypeRequired
	}

	if idemKey != "" {
		rec, err := repo.GetBroadcastReceipt(ctx, s.DB, tenant.ID, idemKey, time.Now().UTC())
		if err == nil && rec != nil {
			return &BroadcastOutcome{Attempted: rec.Attempted, Delivered: rec.Delivered, Replayed: true}, nil
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	attempted, delivered := s.Hub.BroadcastToTenant(tenant.Slug, event)

	if evType == "order_ready" {
		s.markOrderPushed(ctx, tenant, event, delivered)
	}

	status := SyncStatusSuccess
	if attempted > 0 && delivered == 0 {
		status = SyncStatusFailed
	}
	s.Logs.Log(ctx, tenant.ID, "broadcast", map[string]any{
		"event_type": evType,
		"attempted":  attempted,
		"delivered":  delivered,
	}, status)

	if idemKey != "" {
		if _, err := repo.CreateBroadcastReceipt(ctx, s.DB, tenant.ID, idemKey, attempted, delivered, s.ReceiptTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}
	}

	return &BroadcastOutcome{Attempted: attempted, Delivered: delivered}, nil
}

// markOrderPushed records websocket_sent on the referenced order after a
// delivered order_ready event. Best-effort: the fan-out already happened, so
// bookkeeping failures are audited rather than surfaced.
func (s *BroadcastService) markOrderPushed(ctx context.Context, tenant *domain.Tenant, event map[string]any, delivered int) {
	orderID, _ := event["orderId"].(string)
	if orderID == "" || delivered == 0 {
		return
	}
	if err := repo.MarkWebsocketSent(ctx, s.DB, tenant.ID, orderID, time.Now().UTC()); err != nil {
		s.Logs.Log(ctx, tenant.ID, "order_broadcast", map[string]any{
			"orderId": orderID,
			"error":   err.Error(),
		}, SyncStatusFailed)
		return
	}
	s.Logs.Log(ctx, tenant.ID, "order_broadcast", map[string]any{
		"orderId":   orderID,
		"delivered": delivered,
	}, SyncStatusSuccess)
}
