// Package cache provides content-addressed caching of decoded sub-streams.
//
// Keys are strong checksums of decoded content, so entries are shared across
// archives and a cache hit can be verified against its own key. Weak
// checksums such as CRC-32 are unsuitable as content addresses and are
// rejected.
package cache

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/unpack/metadata"
)

// ErrWeakChecksum is returned when a key is not a strong checksum.
var ErrWeakChecksum = errors.New("cache: checksum is not a content address")

// Cache provides content-addressed storage for decoded sub-streams.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns a reader over cached content.
	// Returns nil, false if content is not cached. The caller closes the
	// reader.
	Get(sum metadata.Checksum) (io.ReadCloser, bool)

	// Put stores content read from r to completion. Content that does not
	// match sum is not stored and the call fails with
	// metadata.ErrChecksumMismatch.
	Put(sum metadata.Checksum, r io.Reader) error

	// Delete removes cached content for sum.
	// Missing entries are a no-op.
	Delete(sum metadata.Checksum) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}

// CheckKey reports whether sum can be used as a cache key.
func CheckKey(sum metadata.Checksum) error {
	if sum.IsZero() {
		return fmt.Errorf("%w: checksum is empty", ErrWeakChecksum)
	}
	if !sum.Strong() {
		return fmt.Errorf("%w: %s", ErrWeakChecksum, sum.Algorithm())
	}
	return nil
}
