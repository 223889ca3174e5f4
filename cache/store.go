package cache

import (
	"time"

	gocache "github.com/Code-Hex/go-generics-cache"
)

const ttl = time.Minute * 5

var store = gocache.New[string, any]()

func Get[T any](key string) *T {
	v, ok := store.Get(key)
	if !ok {
		return nil
	}
	value, _ := v.(*T)
	return value
}

func Set[T any](key string, value *T) {
	store.Set(key, value, gocache.WithExpiration(ttl))
}

func Delete(key string) {
	store.Delete(key)
}

// GetOrSet returns the cached value for key, calling factory to fill it on a miss.
// Failed factory calls are not cached.
func GetOrSet[T any](key string, factory func() (*T, error)) (*T, error) {
	v := Get[T](key)
	if v != nil {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		return nil, err
	}
	Set(key, v)
	return v, nil
}
