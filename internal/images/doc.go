// Package images resolves gift image references to decoded rasters.
//
// Resolution order for one reference:
//  1. Normalize to an absolute URL (the cache key)
//  2. Shared byte cache lookup; a hit is decoded without touching the network
//  3. Network fetch bounded by the caller's timeout
//  4. Alternate URLs (protocol swap, canonical path, provider path), 2s each
//  5. Failed; renderers substitute a placeholder
//
// A given key has at most one fetch in flight. Decoded results are kept in
// memory for the life of the Resolver so later renders read them without waiting.
package images
