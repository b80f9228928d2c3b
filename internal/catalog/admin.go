package catalog

import (
	"context"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

// Creator persists new discount records.
type Creator interface {
	Create(ctx context.Context, rec discount.Record) (string, error)
}

// Admin combines the in-memory cache with the write path so the admin API
// can create rules and refresh the snapshot through one dependency.
type Admin struct {
	*Cache
	creator Creator
}

// NewAdmin wraps a cache and a creator.
func NewAdmin(cache *Cache, creator Creator) *Admin {
	return &Admin{Cache: cache, creator: creator}
}

// Create validates and persists a new rule. The snapshot is unchanged until
// the next Reload.
func (a *Admin) Create(ctx context.Context, rec discount.Record) (string, error) {
	return a.creator.Create(ctx, rec)
}
