// Package domain defines the persistence models for tenants, POS devices,
// orders, and the relay's audit tables. These types are mapped with GORM and
// form the core data layer of the order-delivery relay.
package domain

import (
	"time"
)

// Tenant represents one restaurant account. The slug is the routing key for
// both delivery channels: push connections are opened against it and pull
// requests name it explicitly.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: human-readable restaurant name.
//   - Slug: URL-safe unique identifier used to partition all relay traffic.
//   - APIKey: optional tenant-level shared secret (legacy auth); device keys
//     are preferred for pull requests.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Tenant struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"    gorm:"type:varchar(255);not null"`
	Slug      string    `json:"slug"    gorm:"type:varchar(64);not null;uniqueIndex:ux_tenant_slug"`
	APIKey    string    `json:"-"       gorm:"column:api_key;type:varchar(64);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }

// Device represents a registered POS terminal belonging to exactly one
// tenant. Its API key, once issued, identifies both the device and its owning
// tenant for authentication purposes.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - TenantID: foreign key to the owning tenant.
//   - DeviceID: terminal identifier chosen at registration, unique per tenant.
//   - Name: display name shown on dashboards.
//   - APIKey: per-device credential, globally unique.
//   - IsActive: soft-deactivation flag; inactive devices never authenticate.
//   - LastSeenAt / LastHeartbeatAt: liveness timestamps, touched by every
//     authenticated pull request from this device.
type Device struct {
	ID              string     `json:"id"            gorm:"type:char(36);primaryKey"`
	TenantID        string     `json:"tenant_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_tenant_device,priority:1"`
	DeviceID        string     `json:"device_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_tenant_device,priority:2"`
	Name            string     `json:"name"          gorm:"type:varchar(255);not null"`
	APIKey          string     `json:"-"             gorm:"column:api_key;type:varchar(64);not null;uniqueIndex:ux_device_key"`
	IsActive        bool       `json:"is_active"     gorm:"not null;default:true"`
	LastSeenAt      *time.Time `json:"last_seen_at"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Tenant is the owning restaurant account.
	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Device.
func (Device) TableName() string { return "pos_devices" }

// Order is the relay's view of an order row. The commerce lifecycle (Status)
// is owned by the web tier; the relay reads it and writes only the delivery
// columns: PrintStatus, the websocket bookkeeping fields, and the last
// error/device markers.
type Order struct {
	ID           string  `json:"id"            gorm:"type:char(36);primaryKey"`
	TenantID     string  `json:"tenant_id"     gorm:"type:char(36);not null;index:idx_tenant_orders,priority:1"`
	Status       string  `json:"status"        gorm:"type:varchar(32);not null;index"`
	CustomerName string  `json:"customer_name" gorm:"type:varchar(255)"`
	Total        float64 `json:"total"`
	Notes        string  `json:"notes"         gorm:"type:text"`

	// Delivery state, owned by the relay. PrintStatus is nullable: NULL means
	// the order was never handed to a terminal.
	PrintStatus     *PrintStatus `json:"print_status"       gorm:"type:varchar(16)"`
	WebsocketSent   bool         `json:"websocket_sent"     gorm:"not null;default:false"`
	WebsocketSentAt *time.Time   `json:"websocket_sent_at"`
	LastPrintError  string       `json:"last_print_error"   gorm:"type:text"`
	LastPOSDeviceID string       `json:"last_pos_device_id" gorm:"column:last_pos_device_id;type:varchar(64)"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_tenant_orders,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	// Items are filled by the pull endpoint's enrichment step, not by GORM
	// association auto-loading.
	Items []OrderItem `json:"items,omitempty" gorm:"-"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one line item within an order.
type OrderItem struct {
	ID                  string  `json:"id"                  gorm:"type:char(36);primaryKey"`
	OrderID             string  `json:"order_id"            gorm:"type:char(36);not null;index"`
	MenuItemID          string  `json:"menuItemId"          gorm:"column:menu_item_id;type:char(36)"`
	Name                string  `json:"name"                gorm:"type:varchar(255);not null"`
	Price               float64 `json:"price"`
	Quantity            int     `json:"quantity"            gorm:"not null;default:1"`
	SpecialInstructions string  `json:"specialInstructions" gorm:"column:special_instructions;type:text"`

	// SelectedAddons are resolved against current add-on pricing during
	// enrichment; historical prices are not preserved per order.
	SelectedAddons []SelectedAddon `json:"selectedAddons" gorm:"-"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Addon is a menu add-on with its current price. The pull endpoint resolves
// selections against this table at read time.
type Addon struct {
	ID    string  `json:"id"    gorm:"type:char(36);primaryKey"`
	Name  string  `json:"name"  gorm:"type:varchar(255);not null"`
	Price float64 `json:"price"`
}

// TableName returns the database table name for Addon.
func (Addon) TableName() string { return "addons" }

// OrderItemAddon records which add-ons were selected for a line item.
type OrderItemAddon struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderItemID string `gorm:"type:char(36);not null;index"`
	AddonID     string `gorm:"type:char(36);not null;index"`
	Quantity    int    `gorm:"not null;default:1"`
}

// TableName returns the database table name for OrderItemAddon.
func (OrderItemAddon) TableName() string { return "order_item_addons" }

// SelectedAddon is the enriched wire shape of a selected add-on: the
// selection joined with the add-on's current name and price.
type SelectedAddon struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// SyncLog is one append-only audit record of a protocol event. Rows are
// created on inbound push-channel messages and select outbound broadcasts and
// are never mutated or deleted by the relay.
type SyncLog struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	TenantID  string    `json:"tenant_id"  gorm:"type:char(36);not null;index:idx_tenant_synclogs"`
	EventType string    `json:"event_type" gorm:"type:varchar(64);not null"`
	EventData string    `json:"event_data" gorm:"type:text"`
	Status    string    `json:"status"     gorm:"type:varchar(16);not null;check:status IN ('success','received','failed')"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_tenant_synclogs"`
}

// TableName returns the database table name for SyncLog.
func (SyncLog) TableName() string { return "pos_sync_logs" }
