// Package catalog keeps the current discount catalog in memory so every
// evaluation reads one immutable snapshot.
package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

// Loader loads the parsed catalog from persistence. Invalid records come back
// separately for logging.
type Loader interface {
	LoadCatalog(ctx context.Context) (*discount.Catalog, []discount.RecordError, error)
}

// Cache holds the latest catalog snapshot behind a read lock. Reload swaps
// the whole snapshot; readers never see a partially loaded catalog.
type Cache struct {
	loader Loader

	mu      sync.RWMutex
	current *discount.Catalog
}

// NewCache returns an empty cache backed by the loader. Call Reload before
// serving evaluations.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Snapshot returns the current catalog. It is nil until the first Reload.
func (c *Cache) Snapshot() *discount.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Reload fetches a fresh catalog and swaps it in. Skipped invalid records are
// returned for logging; they do not fail the reload.
func (c *Cache) Reload(ctx context.Context) ([]discount.RecordError, error) {
	cat, problems, err := c.loader.LoadCatalog(ctx)
	if err != nil {
		return problems, errors.Wrap(err, "load catalog")
	}

	c.mu.Lock()
	c.current = cat
	c.mu.Unlock()

	return problems, nil
}
