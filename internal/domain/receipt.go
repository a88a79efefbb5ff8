// Package domain defines the core persistence models for the relay.
package domain

import "time"

// BroadcastReceipt records the outcome of a previously processed manual
// broadcast request, keyed by (tenant_id, key). It lets the ops broadcast
// endpoint deduplicate retried POSTs carrying the same Idempotency-Key
// without re-running the fan-out.
type BroadcastReceipt struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	TenantID  string    `gorm:"type:char(36);not null;uniqueIndex:ux_tenant_broadcast_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_tenant_broadcast_key,priority:2"`
	Attempted int       `gorm:"not null"`
	Delivered int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (BroadcastReceipt) TableName() string { return "broadcast_receipts" }
