package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tavolo/pos-relay/internal/domain"
)

func newTenantRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("tenant_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateTenant_Success_PersistsAndSetsFields(t *testing.T) {
	db := newTenantRepoDB(t, &domain.Tenant{})

	tn, err := CreateTenant(context.Background(), db, "Bella Napoli", "bella-napoli", "secret")
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if tn.ID == "" || tn.Slug != "bella-napoli" || tn.APIKey != "secret" {
		t.Fatalf("unexpected Tenant fields: %+v", tn)
	}

	got, err := GetTenantBySlug(context.Background(), db, "bella-napoli")
	if err != nil {
		t.Fatalf("GetTenantBySlug: %v", err)
	}
	if got.ID != tn.ID {
		t.Fatalf("fetched tenant id %q, want %q", got.ID, tn.ID)
	}
}

func TestGetTenantBySlug_NotFound(t *testing.T) {
	db := newTenantRepoDB(t, &domain.Tenant{})

	_, err := GetTenantBySlug(context.Background(), db, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthenticateTenant_MatchesSlugAndKey(t *testing.T) {
	db := newTenantRepoDB(t, &domain.Tenant{})
	seed, err := CreateTenant(context.Background(), db, "Kitchen", "kitchen", "k-secret")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := AuthenticateTenant(context.Background(), db, "kitchen", "k-secret")
	if err != nil {
		t.Fatalf("AuthenticateTenant: %v", err)
	}
	if got.ID != seed.ID {
		t.Fatalf("authenticated tenant id %q, want %q", got.ID, seed.ID)
	}
}

func TestAuthenticateTenant_Mismatches(t *testing.T) {
	db := newTenantRepoDB(t, &domain.Tenant{})
	if _, err := CreateTenant(context.Background(), db, "Kitchen", "kitchen", "k-secret"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct{ slug, key string }{
		{"kitchen", "wrong"},
		{"other", "k-secret"},
		{"kitchen", ""},
	}
	for _, tc := range cases {
		if _, err := AuthenticateTenant(context.Background(), db, tc.slug, tc.key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("slug=%q key=%q: expected ErrNotFound, got %v", tc.slug, tc.key, err)
		}
	}
}

func TestAuthenticateTenant_EmptyStoredKeyNeverMatches(t *testing.T) {
	db := newTenantRepoDB(t, &domain.Tenant{})
	if _, err := CreateTenant(context.Background(), db, "No Key", "no-key", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// An empty presented key against an empty stored key must not authenticate.
	if _, err := AuthenticateTenant(context.Background(), db, "no-key", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty key pair, got %v", err)
	}
}
