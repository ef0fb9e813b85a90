package catalog

import (
	"context"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
)

// MemoryCache is the fallback when no redis address is configured, and
// the test double. No TTL: the process is short-lived and staff
// mutations invalidate eagerly.
type MemoryCache struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	all      []domain.Product
	hasAll   bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{products: make(map[int64]domain.Product)}
}

func (c *MemoryCache) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.products[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &product, nil
}

func (c *MemoryCache) SetProduct(_ context.Context, product *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = *product
	return nil
}

func (c *MemoryCache) GetAll(_ context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasAll {
		return nil, ErrCacheMiss
	}
	out := make([]domain.Product, len(c.all))
	copy(out, c.all)
	return out, nil
}

func (c *MemoryCache) SetAll(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = append([]domain.Product(nil), products...)
	c.hasAll = true
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
	c.all = nil
	c.hasAll = false
	return nil
}
