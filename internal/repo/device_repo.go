// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Device
// model: registration, credential lookup, and heartbeat bookkeeping.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
)

// ErrDuplicate indicates a uniqueness violation, e.g. registering the same
// device_id twice for one tenant.
var ErrDuplicate = errors.New("duplicate")

// CreateDevice registers a new POS terminal for a tenant. The row ID and the
// device API key are server-generated UUIDs. Returns ErrDuplicate when the
// tenant already has a device with the same device_id.
func CreateDevice(ctx context.Context, db *gorm.DB, tenantID, deviceID, name string) (*domain.Device, error) {
	d := &domain.Device{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		DeviceID:  deviceID,
		Name:      name,
		APIKey:    uuid.NewString(),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return d, nil
}

// AuthenticateDevice fetches the active device whose API key matches and
// whose owning tenant's slug matches. The tenant association is preloaded so
// callers can resolve tenant identity from the device alone.
// Returns ErrNotFound when no active device matches.
func AuthenticateDevice(ctx context.Context, db *gorm.DB, tenantSlug, apiKey string) (*domain.Device, error) {
	if apiKey == "" {
		return nil, ErrNotFound
	}
	var d domain.Device
	err := db.WithContext(ctx).
		Joins("Tenant").
		Where("pos_devices.api_key = ? AND pos_devices.is_active = ? AND Tenant.slug = ?", apiKey, true, tenantSlug).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TouchHeartbeat sets a device's last_seen_at and last_heartbeat_at to now.
// Called as a side effect of every successfully device-authenticated pull
// request. Returns ErrNotFound when the device row is gone.
func TouchHeartbeat(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_seen_at":      now,
			"last_heartbeat_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDevices returns all devices registered to a tenant, oldest first.
func ListDevices(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.Device, error) {
	var out []domain.Device
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
