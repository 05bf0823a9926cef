// Package cache stores fetched run files so repeated loads of the same URL
// do not hit the network.
//
// Entries are raw bytes with an optional expiry. [FileCache] keeps them
// under ~/.cache/hopgraph; [NullCache] disables caching.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/hopgraph/pkg/runs"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultDir returns ~/.cache/hopgraph, honoring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "hopgraph"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "hopgraph"), nil
}

// RunsKey returns the cache key for a run file fetched from url.
func RunsKey(url string) string {
	return "runs:" + runs.Hash([]byte(url))
}
