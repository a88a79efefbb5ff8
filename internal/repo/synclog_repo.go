// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only sync log used as the
// relay's per-tenant protocol audit trail.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
)

// InsertSyncLog appends one audit row. Callers that must not fail on logging
// errors (the push-channel hot path) wrap this via services.SyncLogger, which
// swallows errors; the raw error is returned here for tests and diagnostics.
func InsertSyncLog(ctx context.Context, db *gorm.DB, tenantID, eventType, eventData, status string) error {
	row := &domain.SyncLog{
		TenantID:  tenantID,
		EventType: eventType,
		EventData: eventData,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(row).Error
}

// ListSyncLogs returns a tenant's most recent audit rows, newest first.
func ListSyncLogs(ctx context.Context, db *gorm.DB, tenantID string, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.SyncLog
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
