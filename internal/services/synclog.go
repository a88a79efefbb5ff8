// SyncLogger keeps a best-effort, append-only audit trail of protocol events.
// Logging must never break the hot path of message handling or broadcasting,
// so every failure is reported to process diagnostics and swallowed.

package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// Sync log statuses.
const (
	SyncStatusSuccess  = "success"
	SyncStatusReceived = "received"
	SyncStatusFailed   = "failed"
)

// SyncLogger writes protocol audit rows for a tenant.
type SyncLogger struct {
	DB *gorm.DB
}

// NewSyncLogger constructs a SyncLogger.
func NewSyncLogger(db *gorm.DB) *SyncLogger {
	return &SyncLogger{DB: db}
}

// SyncLogReader answers audit-log reads for the ops surface. Kept separate
// from SyncLogger so the hot-path writer stays write-only.
type SyncLogReader struct {
	DB *gorm.DB
}

// NewSyncLogReader constructs a SyncLogReader.
func NewSyncLogReader(db *gorm.DB) *SyncLogReader {
	return &SyncLogReader{DB: db}
}

// List returns the tenant's most recent audit rows, newest first. A limit
// <= 0 falls back to the repository default.
func (r *SyncLogReader) List(ctx context.Context, tenantID string, limit int) ([]domain.SyncLog, error) {
	return repo.ListSyncLogs(ctx, r.DB, tenantID, limit)
}

// Log serializes data and appends one audit row. Serialization or insert
// failures are logged and swallowed; Log never returns an error.
func (l *SyncLogger) Log(ctx context.Context, tenantID, eventType string, data any, status string) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("event_type", eventType).
			Msg("sync log payload not serializable")
		payload = []byte("{}")
	}
	if err := repo.InsertSyncLog(ctx, l.DB, tenantID, eventType, string(payload), status); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("event_type", eventType).
			Msg("sync log insert failed")
	}
}
