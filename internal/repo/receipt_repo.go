// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// BroadcastReceipt model used to deduplicate retried manual broadcasts.
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

// GetBroadcastReceipt returns a non-expired receipt or ErrNotFound.
func GetBroadcastReceipt(ctx context.Context, db *gorm.DB, tenantID, key string, now time.Time) (*domain.BroadcastReceipt, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.BroadcastReceipt
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND key = ? AND expires_at > ?", tenantID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateBroadcastReceipt inserts a receipt and returns ErrDuplicate on a
// unique violation (two requests racing on the same key).
func CreateBroadcastReceipt(ctx context.Context, db *gorm.DB, tenantID, key string, attempted, delivered int, ttl time.Duration) (*domain.BroadcastReceipt, error) {
	now := time.Now().UTC()
	rec := &domain.BroadcastReceipt{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Key:       key,
		Attempted: attempted,
		Delivered: delivered,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
