package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ClientID identifies the owner of an account.
type ClientID uint16

// TxID identifies a transaction. It is unique across the whole input.
type TxID uint32

type TransactionType uint8

const (
	TypeDeposit TransactionType = iota + 1
	TypeWithdrawal
	TypeDispute
	TypeResolve
	TypeChargeback
)

var transactionTypeNames = map[TransactionType]string{
	TypeDeposit:    "deposit",
	TypeWithdrawal: "withdrawal",
	TypeDispute:    "dispute",
	TypeResolve:    "resolve",
	TypeChargeback: "chargeback",
}

func (t TransactionType) String() string {
	if name, ok := transactionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseTransactionType maps the textual record type onto a TransactionType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range transactionTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// Record is one typed account movement from the input stream.
// Amount is only meaningful for deposits and withdrawals; it is ignored
// on dispute, resolve and chargeback records.
type Record struct {
	Type   TransactionType
	Client ClientID
	Tx     TxID
	Amount decimal.NullDecimal
}

func Deposit(client ClientID, tx TxID, amount decimal.Decimal) Record {
	return Record{Type: TypeDeposit, Client: client, Tx: tx, Amount: decimal.NewNullDecimal(amount)}
}

func Withdrawal(client ClientID, tx TxID, amount decimal.Decimal) Record {
	return Record{Type: TypeWithdrawal, Client: client, Tx: tx, Amount: decimal.NewNullDecimal(amount)}
}

func Dispute(client ClientID, tx TxID) Record {
	return Record{Type: TypeDispute, Client: client, Tx: tx}
}

func Resolve(client ClientID, tx TxID) Record {
	return Record{Type: TypeResolve, Client: client, Tx: tx}
}

func Chargeback(client ClientID, tx TxID) Record {
	return Record{Type: TypeChargeback, Client: client, Tx: tx}
}

func (r Record) String() string {
	if r.Amount.Valid {
		return fmt.Sprintf("%s client=%d tx=%d amount=%s", r.Type, r.Client, r.Tx, r.Amount.Decimal)
	}
	return fmt.Sprintf("%s client=%d tx=%d", r.Type, r.Client, r.Tx)
}

// StoredTransaction is an accepted deposit kept around so it can be disputed.
// Client and Amount never change once stored.
type StoredTransaction struct {
	Tx       TxID
	Client   ClientID
	Amount   decimal.Decimal
	Disputed bool
}
