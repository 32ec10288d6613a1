package cache

import "time"

// Cache stores opaque values with a per-entry TTL. Implementations are safe
// for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}
