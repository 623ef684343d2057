package lru

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"payments_ledger/internal/repository"
)

var (
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.ProcessedRepository   = (*ProcessedRepository)(nil)
)

// EvictFunc is called with the cache name every time an entry is evicted.
type EvictFunc func(cache string)

func newCache[K comparable, V any](name string, size int, onEvict EvictFunc) (*simplelru.LRU[K, V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%s cache capacity must be positive, got %d", name, size)
	}

	var callback simplelru.EvictCallback[K, V]
	if onEvict != nil {
		callback = func(K, V) { onEvict(name) }
	}

	cache, err := simplelru.NewLRU[K, V](size, callback)
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", name, err)
	}
	return cache, nil
}
