// HealthService serves stateless device liveness reads for dashboards and
// alerting. The classification itself lives in domain.ClassifyDevice; this
// service binds it to the device table and the configured thresholds.

package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/config"
	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// DeviceStatus is one device's classification for external consumption.
type DeviceStatus struct {
	DeviceID        string              `json:"device_id"`
	Name            string              `json:"name"`
	Status          domain.DeviceHealth `json:"status"`
	IsActive        bool                `json:"is_active"`
	LastSeenAt      *time.Time          `json:"last_seen_at"`
	LastHeartbeatAt *time.Time          `json:"last_heartbeat_at"`
}

// HealthService classifies a tenant's devices from their stored timestamps.
type HealthService struct {
	DB  *gorm.DB
	Cfg config.HeartbeatConfig
}

// NewHealthService constructs a HealthService.
func NewHealthService(db *gorm.DB, cfg config.HeartbeatConfig) *HealthService {
	return &HealthService{DB: db, Cfg: cfg}
}

// ListDeviceStatuses returns every registered device of the tenant with its
// health recomputed against now. Nothing is cached or written.
func (s *HealthService) ListDeviceStatuses(ctx context.Context, tenantID string, now time.Time) ([]DeviceStatus, error) {
	devices, err := repo.ListDevices(ctx, s.DB, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceStatus, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceStatus{
			DeviceID:        d.DeviceID,
			Name:            d.Name,
			Status:          domain.ClassifyDevice(d.IsActive, d.LastSeenAt, now, s.Cfg.DisconnectedAfter, s.Cfg.OfflineAfter),
			IsActive:        d.IsActive,
			LastSeenAt:      d.LastSeenAt,
			LastHeartbeatAt: d.LastHeartbeatAt,
		})
	}
	return out, nil
}
