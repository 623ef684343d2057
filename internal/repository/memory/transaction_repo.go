package memory

import (
	"payments_ledger/internal/domain"
)

type TransactionRepository struct {
	transactions map[domain.TxID]domain.StoredTransaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[domain.TxID]domain.StoredTransaction),
	}
}

func (r *TransactionRepository) Get(tx domain.TxID) (domain.StoredTransaction, bool) {
	stored, exists := r.transactions[tx]
	return stored, exists
}

func (r *TransactionRepository) Put(stored domain.StoredTransaction) {
	r.transactions[stored.Tx] = stored
}

func (r *TransactionRepository) Len() int {
	return len(r.transactions)
}
