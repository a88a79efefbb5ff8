// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides credential-store lookups for the Tenant
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a tenant is not found (including key mismatch), functions return
//     gorm.ErrRecordNotFound (exported here as ErrNotFound).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateTenant inserts a new Tenant row. The tenant ID is a randomly
// generated UUID and CreatedAt is set to UTC. Used by seeding and tests; the
// admin surface that manages tenants in production lives outside the relay.
func CreateTenant(ctx context.Context, db *gorm.DB, name, slug, apiKey string) (*domain.Tenant, error) {
	t := &domain.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTenantBySlug fetches a tenant by its slug, or ErrNotFound.
func GetTenantBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AuthenticateTenant fetches a tenant whose slug and API key both match
// (legacy shared-secret auth). A tenant with an empty stored key never
// authenticates. Returns ErrNotFound on mismatch.
func AuthenticateTenant(ctx context.Context, db *gorm.DB, slug, apiKey string) (*domain.Tenant, error) {
	if apiKey == "" {
		return nil, ErrNotFound
	}
	var t domain.Tenant
	err := db.WithContext(ctx).
		Where("slug = ? AND api_key = ? AND api_key <> ''", slug, apiKey).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
