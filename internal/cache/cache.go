// internal/cache/cache.go
package cache

// Cache defines a generic keyed cache.
type Cache[T any] interface {
	// Get retrieves a value from the cache.
	Get(key string) (T, bool)

	// Set stores a value in the cache.
	Set(key string, data T)
}
