package memory

import (
	"payments_ledger/internal/domain"
)

// AccountRepository keeps every account ever created.
type AccountRepository struct {
	accounts map[domain.ClientID]domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[domain.ClientID]domain.Account),
	}
}

func (r *AccountRepository) Get(client domain.ClientID) (domain.Account, bool) {
	account, exists := r.accounts[client]
	return account, exists
}

func (r *AccountRepository) Put(account domain.Account) {
	r.accounts[account.Client] = account
}

func (r *AccountRepository) All() []domain.Account {
	result := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, account)
	}
	return result
}

func (r *AccountRepository) Len() int {
	return len(r.accounts)
}
