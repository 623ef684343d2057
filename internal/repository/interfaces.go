package repository

import (
	"payments_ledger/internal/domain"
)

// Repositories are not safe for concurrent use. The engines own them and
// serialise access themselves.

type AccountRepository interface {
	Get(client domain.ClientID) (domain.Account, bool)
	Put(account domain.Account)
	All() []domain.Account
	Len() int
}

type TransactionRepository interface {
	Get(tx domain.TxID) (domain.StoredTransaction, bool)
	Put(stored domain.StoredTransaction)
	Len() int
}

// ProcessedRepository is the set of transaction ids already consumed by a
// deposit or withdrawal.
type ProcessedRepository interface {
	Seen(tx domain.TxID) bool
	Mark(tx domain.TxID)
	Len() int
}

// Cache names used when reporting evictions.
const (
	CacheAccounts     = "accounts"
	CacheTransactions = "transactions"
	CacheProcessed    = "processed_tx_ids"
)
