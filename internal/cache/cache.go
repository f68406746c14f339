// Package cache stores OCR results keyed by image URL so each distinct
// claim image is fetched and recognized at most once across a run and
// across runs. Only positive results belong here: a failed fetch or
// recognition must be retried on the next run, so it is never cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the caching interface shared by the memory, disk and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from an image URL. Hashing keeps file
// names filesystem-safe regardless of what the wiki puts in the URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "claimatlas:v1:" + hex.EncodeToString(sum[:])
}
