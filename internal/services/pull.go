// PullService implements the pull/poll fallback query: the request/response
// path POS terminals hit on a timer to fetch orders the push channel may have
// missed. It owns default/limit handling, the needs-attention filter, line
// item and add-on enrichment, and the freshness values (last-modified plus a
// content fingerprint) that drive conditional re-polling.
//
// Observability: Pull is OpenTelemetry-instrumented; spans carry the tenant
// and the effective filters.

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tavolo/pos-relay/internal/config"
	"github.com/tavolo/pos-relay/internal/domain"
	"github.com/tavolo/pos-relay/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PullQuery carries the caller-supplied filters of one poll. Zero values are
// replaced by configured defaults inside Pull.
type PullQuery struct {
	// Status is the commerce-status filter; defaults to the configured
	// default ("confirmed").
	Status string
	// Limit caps the result size; defaults to the configured default and is
	// clamped to the configured maximum.
	Limit int
	// Since bounds results to rows created or updated at/after this time.
	Since *time.Time
	// IncludeAll drops the needs-attention filter and the default lookback,
	// exposing full order history for admin/reporting use.
	IncludeAll bool
}

// PullResult is one poll's worth of orders plus the freshness values the
// client should echo on its next poll.
type PullResult struct {
	Orders []domain.Order
	// Filters echoes the effective filter set for the response body.
	Filters PullQuery
	// LastModified is the maximum created_at among the results; zero when
	// the result set is empty.
	LastModified time.Time
	// ETag is a weak entity tag: a SHA-256 fingerprint over the serialized
	// result set.
	ETag string
	// QueryDuration measures the storage round-trips, for the response's
	// performance block.
	QueryDuration time.Duration
}

// PullService answers pull/poll requests for authenticated callers.
type PullService struct {
	DB  *gorm.DB
	Cfg config.PullConfig
}

// NewPullService constructs a PullService.
func NewPullService(db *gorm.DB, cfg config.PullConfig) *PullService {
	return &PullService{DB: db, Cfg: cfg}
}

// Pull returns the orders the tenant's terminals should see, oldest first,
// enriched with line items and currently-priced add-ons. No partial results:
// any storage failure fails the whole call.
func (s *PullService) Pull(ctx context.Context, tenantID string, q PullQuery) (*PullResult, error) {
	tr := otel.Tracer("services/PullService")
	ctx, span := tr.Start(ctx, "Pull",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Bool("pull.include_all", q.IncludeAll),
		),
	)
	defer span.End()

	// Apply defaults and clamps.
	if strings.TrimSpace(q.Status) == "" {
		q.Status = s.Cfg.DefaultStatus
	}
	if q.Limit <= 0 {
		q.Limit = s.Cfg.DefaultLimit
	}
	if q.Limit > s.Cfg.MaxLimit {
		q.Limit = s.Cfg.MaxLimit
	}

	start := time.Now()
	orders, err := repo.ListPullOrders(ctx, s.DB, repo.PullFilters{
		TenantID:   tenantID,
		Status:     q.Status,
		Since:      q.Since,
		Lookback:   s.Cfg.Lookback,
		IncludeAll: q.IncludeAll,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.LoadOrderItems(ctx, s.DB, orders); err != nil {
		return nil, err
	}
	queryDur := time.Since(start)

	res := &PullResult{
		Orders:        orders,
		Filters:       q,
		QueryDuration: queryDur,
	}
	for _, o := range orders {
		if o.CreatedAt.After(res.LastModified) {
			res.LastModified = o.CreatedAt
		}
	}
	res.ETag = fingerprint(orders)

	span.SetAttributes(attribute.Int("pull.count", len(orders)))
	return res, nil
}

// fingerprint computes a weak entity tag over the serialized result set.
// O(response size), which is acceptable because responses are capped by the
// pull limit.
func fingerprint(orders []domain.Order) string {
	raw, err := json.Marshal(orders)
	if err != nil {
		// Orders are plain data; Marshal cannot realistically fail, but the
		// tag must never be empty on a 200.
		raw = []byte(fmt.Sprintf("len:%d", len(orders)))
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(sum[:16]))
}
