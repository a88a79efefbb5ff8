// DeviceService handles terminal provisioning. Registration issues the
// per-device API key that the pull endpoint's device-level strategy
// authenticates against.

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// ErrInvalidDeviceID is returned when a registration names a device id
// outside the accepted slug alphabet.
var ErrInvalidDeviceID = errors.New("device id must match ^[a-z0-9][a-z0-9_-]{0,63}$")

// deviceIDRE constrains terminal identifiers to a URL- and log-safe alphabet.
var deviceIDRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// DeviceService registers POS terminals for a tenant.
type DeviceService struct {
	DB *gorm.DB

	// NameLocale drives display-name titling when no name is supplied.
	NameLocale language.Tag
}

// NewDeviceService constructs a DeviceService.
func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{DB: db, NameLocale: language.English}
}

// Register creates a terminal for the tenant. The API key is
// server-generated; the display name defaults to a title-cased form of the
// device id ("front-counter" → "Front Counter") when blank.
// Returns ErrDeviceExists when the tenant already uses the device id.
func (s *DeviceService) Register(ctx context.Context, tenantID, deviceID, name string) (*domain.Device, error) {
	deviceID = strings.ToLower(strings.TrimSpace(deviceID))
	if !deviceIDRE.MatchString(deviceID) {
		return nil, ErrInvalidDeviceID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.displayName(deviceID)
	}

	d, err := repo.CreateDevice(ctx, s.DB, tenantID, deviceID, name)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDeviceExists
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// displayName derives a human-readable name from a device id slug.
func (s *DeviceService) displayName(deviceID string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(deviceID)
	return cases.Title(s.NameLocale).String(words)
}
