package memory

import (
	"payments_ledger/internal/repository"
)

var (
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.AccountRepository     = (*AccountRepository)(nil)
	_ repository.ProcessedRepository   = (*ProcessedRepository)(nil)
)
