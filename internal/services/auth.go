// Authenticator implements credential resolution for both delivery channels. The
// relay has two independent credential kinds: per-device API keys (preferred)
// and tenant-level shared secrets (legacy). They are modeled as an ordered
// strategy list; the first strategy that matches wins, so device identity
// always takes precedence over the tenant fallback when both would match.
//
// The push channel deliberately uses only the tenant strategy today
// (individually revoked devices can still connect with the shared tenant
// key); see relay.Server for the documented asymmetry.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"
)

// Identity is the result of a successful authentication: the resolved tenant
// and, when a device-level key matched, the device that presented it.
type Identity struct {
	Tenant *domain.Tenant
	// Device is nil for tenant-level (legacy) authentication.
	Device *domain.Device
}

// DeviceID returns the terminal identifier, or "" for tenant-level auth.
func (id Identity) DeviceID() string {
	if id.Device == nil {
		return ""
	}
	return id.Device.DeviceID
}

// Strategy resolves one credential kind. It returns (nil, nil) on a clean
// no-match so the next strategy can be tried; a non-nil error aborts the
// chain (infrastructure failure, not a mismatch).
type Strategy func(ctx context.Context, db *gorm.DB, tenantSlug, apiKey string) (*Identity, error)

// Authenticator applies an ordered list of credential strategies.
type Authenticator struct {
	DB         *gorm.DB
	Strategies []Strategy

	// TouchHeartbeat controls whether a device-level match updates the
	// device's liveness timestamps as a side effect. The pull path wants
	// this; read-only callers can turn it off.
	TouchHeartbeat bool
}

// NewAuthenticator builds the pull-channel authenticator: device key first,
// tenant key as the legacy fallback, heartbeat touch enabled.
func NewAuthenticator(db *gorm.DB) *Authenticator {
	return &Authenticator{
		DB:             db,
		Strategies:     []Strategy{DeviceStrategy, TenantStrategy},
		TouchHeartbeat: true,
	}
}

// NewTenantAuthenticator builds an authenticator that accepts only the
// tenant-level shared secret. Used by the push channel and the ops surface.
func NewTenantAuthenticator(db *gorm.DB) *Authenticator {
	return &Authenticator{
		DB:         db,
		Strategies: []Strategy{TenantStrategy},
	}
}

// Authenticate resolves the credential for tenantSlug. First matching
// strategy wins. Returns ErrTenantRequired for a blank slug and
// ErrUnauthorized when no strategy matches.
func (a *Authenticator) Authenticate(ctx context.Context, tenantSlug, apiKey string) (*Identity, error) {
	tenantSlug = strings.TrimSpace(tenantSlug)
	if tenantSlug == "" {
		return nil, ErrTenantRequired
	}

	for _, strat := range a.Strategies {
		id, err := strat(ctx, a.DB, tenantSlug, apiKey)
		if err != nil {
			return nil, err
		}
		if id == nil {
			continue
		}
		if a.TouchHeartbeat && id.Device != nil {
			if err := repo.TouchHeartbeat(ctx, a.DB, id.Device.ID, time.Now().UTC()); err != nil {
				return nil, err
			}
		}
		return id, nil
	}
	return nil, ErrUnauthorized
}

// DeviceStrategy matches an active device whose API key and owning tenant's
// slug both match the request.
func DeviceStrategy(ctx context.Context, db *gorm.DB, tenantSlug, apiKey string) (*Identity, error) {
	d, err := repo.AuthenticateDevice(ctx, db, tenantSlug, apiKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{Tenant: &d.Tenant, Device: d}, nil
}

// TenantStrategy matches the legacy tenant-level shared secret.
func TenantStrategy(ctx context.Context, db *gorm.DB, tenantSlug, apiKey string) (*Identity, error) {
	t, err := repo.AuthenticateTenant(ctx, db, tenantSlug, apiKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{Tenant: t}, nil
}

// BearerToken extracts the credential from an Authorization header value.
// Returns "" when the header is missing or not a bearer scheme.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
