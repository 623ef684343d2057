package lru

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/repository"
)

type ProcessedRepository struct {
	cache *simplelru.LRU[domain.TxID, struct{}]
}

func NewProcessedRepository(capacity int, onEvict EvictFunc) (*ProcessedRepository, error) {
	cache, err := newCache[domain.TxID, struct{}](repository.CacheProcessed, capacity, onEvict)
	if err != nil {
		return nil, err
	}
	return &ProcessedRepository{cache: cache}, nil
}

// Seen refreshes the recency of tx when it is present.
func (r *ProcessedRepository) Seen(tx domain.TxID) bool {
	_, ok := r.cache.Get(tx)
	return ok
}

func (r *ProcessedRepository) Mark(tx domain.TxID) {
	r.cache.Add(tx, struct{}{})
}

func (r *ProcessedRepository) Len() int {
	return r.cache.Len()
}
