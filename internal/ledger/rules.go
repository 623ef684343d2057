package ledger

import (
	"github.com/shopspring/decimal"

	"payments_ledger/internal/domain"
)

// Reader is the read side of the ledger state.
type Reader interface {
	Account(client domain.ClientID) (domain.Account, bool)
	Transaction(tx domain.TxID) (domain.StoredTransaction, bool)
	Seen(tx domain.TxID) bool
}

// Delta is the complete set of writes produced by one accepted record.
type Delta struct {
	Account     *domain.Account
	Transaction *domain.StoredTransaction
	// MarkProcessed records Tx in the processed id set.
	MarkProcessed bool
	Tx            domain.TxID
}

func Evaluate(state Reader, rec domain.Record) (Delta, error) {
	switch rec.Type {
	case domain.TypeDeposit:
		return deposit(state, rec)
	case domain.TypeWithdrawal:
		return withdrawal(state, rec)
	case domain.TypeDispute:
		return dispute(state, rec)
	case domain.TypeResolve:
		return resolve(state, rec)
	case domain.TypeChargeback:
		return chargeback(state, rec)
	default:
		return Delta{}, domain.NewError(domain.ErrInvalidTransaction, rec, "unknown transaction type")
	}
}

func deposit(state Reader, rec domain.Record) (Delta, error) {
	if state.Seen(rec.Tx) {
		return Delta{}, domain.NewError(domain.ErrDuplicateTransaction, rec, "")
	}
	amount, err := positiveAmount(rec)
	if err != nil {
		return Delta{}, err
	}

	account := accountOrNew(state, rec.Client)
	account.Available = account.Available.Add(amount)

	return Delta{
		Account: &account,
		Transaction: &domain.StoredTransaction{
			Tx:     rec.Tx,
			Client: rec.Client,
			Amount: amount,
		},
		MarkProcessed: true,
		Tx:            rec.Tx,
	}, nil
}

// Withdrawals consume an id but are not disputable, so nothing is stored.
func withdrawal(state Reader, rec domain.Record) (Delta, error) {
	if state.Seen(rec.Tx) {
		return Delta{}, domain.NewError(domain.ErrDuplicateTransaction, rec, "")
	}
	amount, err := positiveAmount(rec)
	if err != nil {
		return Delta{}, err
	}

	account, ok := state.Account(rec.Client)
	if !ok {
		return Delta{}, domain.NewError(domain.ErrInsufficientFunds, rec, "no account for client")
	}
	if account.Locked {
		return Delta{}, domain.NewError(domain.ErrAccountFrozen, rec, "")
	}
	if account.Available.LessThan(amount) {
		return Delta{}, domain.NewError(domain.ErrInsufficientFunds, rec, "available "+account.Available.String())
	}

	account.Available = account.Available.Sub(amount)

	return Delta{Account: &account, MarkProcessed: true, Tx: rec.Tx}, nil
}

func dispute(state Reader, rec domain.Record) (Delta, error) {
	stored, err := storedFor(state, rec)
	if err != nil {
		return Delta{}, err
	}

	account := accountOrNew(state, rec.Client)
	if account.Locked {
		return Delta{}, domain.NewError(domain.ErrAccountFrozen, rec, "")
	}
	if stored.Disputed {
		return Delta{}, domain.NewError(domain.ErrTransactionAlreadyDisputed, rec, "")
	}
	if account.Available.LessThan(stored.Amount) {
		return Delta{}, domain.NewError(domain.ErrInsufficientFunds, rec, "available "+account.Available.String())
	}

	account.Available = account.Available.Sub(stored.Amount)
	account.Held = account.Held.Add(stored.Amount)
	stored.Disputed = true

	return Delta{Account: &account, Transaction: &stored}, nil
}

func resolve(state Reader, rec domain.Record) (Delta, error) {
	stored, account, err := disputedFor(state, rec)
	if err != nil {
		return Delta{}, err
	}

	account.Held = account.Held.Sub(stored.Amount)
	account.Available = account.Available.Add(stored.Amount)
	stored.Disputed = false

	return Delta{Account: &account, Transaction: &stored}, nil
}

func chargeback(state Reader, rec domain.Record) (Delta, error) {
	stored, account, err := disputedFor(state, rec)
	if err != nil {
		return Delta{}, err
	}

	account.Held = account.Held.Sub(stored.Amount)
	account.Locked = true
	stored.Disputed = false

	return Delta{Account: &account, Transaction: &stored}, nil
}

// storedFor looks up the referenced deposit and checks its owner.
func storedFor(state Reader, rec domain.Record) (domain.StoredTransaction, error) {
	stored, ok := state.Transaction(rec.Tx)
	if !ok {
		return domain.StoredTransaction{}, domain.NewError(domain.ErrTransactionNotFound, rec, "")
	}
	if stored.Client != rec.Client {
		return domain.StoredTransaction{}, domain.NewError(domain.ErrClientIDMismatch, rec, "")
	}
	return stored, nil
}

// disputedFor is the shared lookup for resolve and chargeback.
func disputedFor(state Reader, rec domain.Record) (domain.StoredTransaction, domain.Account, error) {
	stored, err := storedFor(state, rec)
	if err != nil {
		return domain.StoredTransaction{}, domain.Account{}, err
	}
	if !stored.Disputed {
		return domain.StoredTransaction{}, domain.Account{}, domain.NewError(domain.ErrTransactionNotDisputed, rec, "")
	}

	// Held can only fall short of the disputed amount when the account was
	// evicted from a bounded cache after the dispute.
	account := accountOrNew(state, rec.Client)
	if account.Held.LessThan(stored.Amount) {
		return domain.StoredTransaction{}, domain.Account{}, domain.NewError(domain.ErrInsufficientFunds, rec, "held "+account.Held.String())
	}
	return stored, account, nil
}

func accountOrNew(state Reader, client domain.ClientID) domain.Account {
	if account, ok := state.Account(client); ok {
		return account
	}
	return domain.NewAccount(client)
}

func positiveAmount(rec domain.Record) (decimal.Decimal, error) {
	if !rec.Amount.Valid {
		return decimal.Zero, domain.NewError(domain.ErrInvalidTransaction, rec, "amount is required")
	}
	if !rec.Amount.Decimal.IsPositive() {
		return decimal.Zero, domain.NewError(domain.ErrInvalidTransaction, rec, "amount must be positive")
	}
	return rec.Amount.Decimal, nil
}
