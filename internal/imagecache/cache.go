package imagecache

import "context"

// Cache is the shared image byte cache.
type Cache interface {
	// Get returns the bytes stored under key and whether they were found.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error
}
