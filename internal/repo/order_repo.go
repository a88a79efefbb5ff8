// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the pull-path order queries and the
// guarded print-status writes.
//
// Error semantics:
//   - Missing orders return ErrNotFound.
//   - Illegal print-status writes return ErrInvalidTransition.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
)

// ErrInvalidTransition indicates a print-status write that the transition
// table forbids (e.g. printed → pending).
var ErrInvalidTransition = errors.New("invalid print-status transition")

// PullFilters describes one pull-orders query. Zero values mean "not set";
// the service layer applies defaults before calling ListPullOrders.
type PullFilters struct {
	TenantID string
	// Status is the commerce-status filter (e.g. "confirmed"). Always applied.
	Status string
	// Since bounds results to rows created or updated at/after this time.
	Since *time.Time
	// Lookback is the default window applied when Since is nil and
	// IncludeAll is false.
	Lookback time.Duration
	// IncludeAll drops the needs-attention print-status filter and the time
	// bound, exposing full history for admin/reporting use.
	IncludeAll bool
	// Limit caps the result size.
	Limit int
}

// ListPullOrders returns the orders a POS terminal should see, oldest first.
//
// Unless IncludeAll is set, only orders still needing POS attention are
// returned: print_status IN (pending, sent_to_pos) OR print_status IS NULL.
// Ordering is ascending (created_at, id); the id tiebreak keeps the result
// deterministic when rows share a creation timestamp.
func ListPullOrders(ctx context.Context, db *gorm.DB, f PullFilters) ([]domain.Order, error) {
	q := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("tenant_id = ? AND status = ?", f.TenantID, f.Status)

	if !f.IncludeAll {
		q = q.Where("print_status IN (?, ?) OR print_status IS NULL",
			domain.PrintStatusPending, domain.PrintStatusSentToPOS)
	}

	switch {
	case f.Since != nil:
		q = q.Where("created_at >= ? OR updated_at >= ?", *f.Since, *f.Since)
	case !f.IncludeAll && f.Lookback > 0:
		q = q.Where("created_at >= ?", time.Now().UTC().Add(-f.Lookback))
	}

	var out []domain.Order
	err := q.Order("created_at asc, id asc").
		Limit(f.Limit).
		Find(&out).Error
	return out, err
}

// LoadOrderItems fills Items (and their SelectedAddons) for every order in
// the slice, in place. Add-on names and prices are resolved against the
// current addons table, not the price at order time.
func LoadOrderItems(ctx context.Context, db *gorm.DB, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	var items []domain.OrderItem
	if err := db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("order_id asc, id asc").
		Find(&items).Error; err != nil {
		return err
	}

	if err := loadSelectedAddons(ctx, db, items); err != nil {
		return err
	}

	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		if its, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = its
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return nil
}

// loadSelectedAddons resolves each item's add-on selections against current
// add-on pricing, in place.
func loadSelectedAddons(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	itemIDs := make([]string, len(items))
	for i := range items {
		itemIDs[i] = items[i].ID
	}

	type selectionRow struct {
		OrderItemID string
		AddonID     string
		Name        string
		Price       float64
		Quantity    int
	}
	var rows []selectionRow
	err := db.WithContext(ctx).
		Table("order_item_addons").
		Select("order_item_addons.order_item_id, order_item_addons.addon_id, addons.name, addons.price, order_item_addons.quantity").
		Joins("JOIN addons ON addons.id = order_item_addons.addon_id").
		Where("order_item_addons.order_item_id IN ?", itemIDs).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byItem := make(map[string][]domain.SelectedAddon, len(items))
	for _, r := range rows {
		byItem[r.OrderItemID] = append(byItem[r.OrderItemID], domain.SelectedAddon{
			ID:       r.AddonID,
			Name:     r.Name,
			Price:    r.Price,
			Quantity: r.Quantity,
		})
	}
	for i := range items {
		if sel, ok := byItem[items[i].ID]; ok {
			items[i].SelectedAddons = sel
		} else {
			items[i].SelectedAddons = []domain.SelectedAddon{}
		}
	}
	return nil
}

// UpdatePrintStatus moves an order's print status through the transition
// table. deviceID and errMsg are recorded as the last attempt markers
// (errMsg only when moving to failed; it is cleared otherwise).
//
// Returns ErrNotFound when the order does not belong to the tenant and
// ErrInvalidTransition when the transition table forbids the move.
func UpdatePrintStatus(ctx context.Context, db *gorm.DB, tenantID, orderID string, to domain.PrintStatus, deviceID, errMsg string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.Order
		if err := tx.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&o).Error; err != nil {
			return err
		}
		if !domain.CanTransition(o.PrintStatus, to) {
			from := "null"
			if o.PrintStatus != nil {
				from = string(*o.PrintStatus)
			}
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		updates := map[string]any{
			"print_status":     to,
			"last_print_error": "",
		}
		if to == domain.PrintStatusFailed {
			updates["last_print_error"] = errMsg
		}
		if deviceID != "" {
			updates["last_pos_device_id"] = deviceID
		}
		return tx.Model(&domain.Order{}).Where("id = ?", orderID).Updates(updates).Error
	})
}

// MarkWebsocketSent records a successful push delivery on the order row and
// advances its print status to sent_to_pos when the transition is legal.
// Orders already printed keep their state; the push flag is still recorded.
func MarkWebsocketSent(ctx context.Context, db *gorm.DB, tenantID, orderID string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.Order
		if err := tx.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&o).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"websocket_sent":    true,
			"websocket_sent_at": now,
		}
		if domain.CanTransition(o.PrintStatus, domain.PrintStatusSentToPOS) {
			updates["print_status"] = domain.PrintStatusSentToPOS
		}
		return tx.Model(&domain.Order{}).Where("id = ?", orderID).Updates(updates).Error
	})
}
