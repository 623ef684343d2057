package lru

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/repository"
)

type AccountRepository struct {
	cache *simplelru.LRU[domain.ClientID, domain.Account]
}

func NewAccountRepository(capacity int, onEvict EvictFunc) (*AccountRepository, error) {
	cache, err := newCache[domain.ClientID, domain.Account](repository.CacheAccounts, capacity, onEvict)
	if err != nil {
		return nil, err
	}
	return &AccountRepository{cache: cache}, nil
}

func (r *AccountRepository) Get(client domain.ClientID) (domain.Account, bool) {
	return r.cache.Get(client)
}

func (r *AccountRepository) Put(account domain.Account) {
	r.cache.Add(account.Client, account)
}

// All returns the resident accounts, least recently used first.
func (r *AccountRepository) All() []domain.Account {
	return r.cache.Values()
}

func (r *AccountRepository) Len() int {
	return r.cache.Len()
}
