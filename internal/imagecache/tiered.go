package imagecache

import (
	"context"
	"errors"
)

// Tiered consults caches in order. A hit in a slower tier is copied into
// every faster tier. Put writes through to all tiers.
type Tiered struct {
	tiers []Cache
}

// NewTiered creates a tiered cache, fastest tier first.
func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

// Get implements Cache.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, c := range t.tiers {
		data, ok := c.Get(ctx, key)
		if !ok {
			continue
		}
		for _, faster := range t.tiers[:i] {
			_ = faster.Put(ctx, key, data)
		}
		return data, true
	}
	return nil, false
}

// Put implements Cache. Every tier is attempted; failures are joined.
func (t *Tiered) Put(ctx context.Context, key string, data []byte) error {
	var errs []error
	for _, c := range t.tiers {
		if err := c.Put(ctx, key, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
