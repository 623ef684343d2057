package lru

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/repository"
)

type TransactionRepository struct {
	cache *simplelru.LRU[domain.TxID, domain.StoredTransaction]
}

func NewTransactionRepository(capacity int, onEvict EvictFunc) (*TransactionRepository, error) {
	cache, err := newCache[domain.TxID, domain.StoredTransaction](repository.CacheTransactions, capacity, onEvict)
	if err != nil {
		return nil, err
	}
	return &TransactionRepository{cache: cache}, nil
}

func (r *TransactionRepository) Get(tx domain.TxID) (domain.StoredTransaction, bool) {
	return r.cache.Get(tx)
}

func (r *TransactionRepository) Put(stored domain.StoredTransaction) {
	r.cache.Add(stored.Tx, stored)
}

func (r *TransactionRepository) Len() int {
	return r.cache.Len()
}
