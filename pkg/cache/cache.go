// Package cache stores maven-metadata.xml documents between resolutions.
//
// Metadata is the only remote content whose answer changes over time, so it
// is kept apart from the local repository and expires according to each
// repository's update policy. Artifacts never pass through this package.
//
// Backends:
//   - [FileCache]: JSON entry files under the user cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance for several gateway replicas
//   - [MemoryCache]: an in-process LRU, usually placed in front of the others
//     with [Tiered]
//   - [NullCache]: caching disabled
//
// Keys come from [MetadataKey] and are scoped by repository id, so a mirror
// that takes over a repository shares its cache entries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry. A ttl of
// zero or less stores the entry without expiry.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. All implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MetadataKey is the cache key of a metadata document: the repository id
// plus the repository-relative document path.
func MetadataKey(repoID, rel string) string {
	return "metadata:" + repoID + ":" + rel
}

// Hash computes a SHA-256 hash of the input data as 64 hex characters.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
