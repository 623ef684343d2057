package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of reasons a record can be rejected. Each kind
// is itself an error so callers can match with errors.Is.
type ErrorKind uint8

const (
	ErrInvalidTransaction ErrorKind = iota + 1
	ErrTransactionNotFound
	ErrClientIDMismatch
	ErrTransactionAlreadyDisputed
	ErrTransactionNotDisputed
	ErrInsufficientFunds
	ErrAccountFrozen
	ErrDuplicateTransaction
)

// ErrorKinds lists every kind in declaration order.
var ErrorKinds = []ErrorKind{
	ErrInvalidTransaction,
	ErrTransactionNotFound,
	ErrClientIDMismatch,
	ErrTransactionAlreadyDisputed,
	ErrTransactionNotDisputed,
	ErrInsufficientFunds,
	ErrAccountFrozen,
	ErrDuplicateTransaction,
}

func (k ErrorKind) Error() string {
	switch k {
	case ErrInvalidTransaction:
		return "invalid transaction"
	case ErrTransactionNotFound:
		return "transaction not found"
	case ErrClientIDMismatch:
		return "client id mismatch"
	case ErrTransactionAlreadyDisputed:
		return "transaction already disputed"
	case ErrTransactionNotDisputed:
		return "transaction is not under dispute"
	case ErrInsufficientFunds:
		return "insufficient funds"
	case ErrAccountFrozen:
		return "account is frozen due to chargeback"
	case ErrDuplicateTransaction:
		return "duplicate transaction"
	default:
		return fmt.Sprintf("unknown error kind %d", uint8(k))
	}
}

// String returns the snake_case label used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidTransaction:
		return "invalid_transaction"
	case ErrTransactionNotFound:
		return "transaction_not_found"
	case ErrClientIDMismatch:
		return "client_id_mismatch"
	case ErrTransactionAlreadyDisputed:
		return "transaction_already_disputed"
	case ErrTransactionNotDisputed:
		return "transaction_not_disputed"
	case ErrInsufficientFunds:
		return "insufficient_funds"
	case ErrAccountFrozen:
		return "account_frozen"
	case ErrDuplicateTransaction:
		return "duplicate_transaction"
	default:
		return "unknown"
	}
}

// Error is a rejected record together with the identifiers needed to
// diagnose it.
type Error struct {
	Kind   ErrorKind
	Type   TransactionType
	Client ClientID
	Tx     TxID
	Detail string
}

func NewError(kind ErrorKind, rec Record, detail string) *Error {
	return &Error{
		Kind:   kind,
		Type:   rec.Type,
		Client: rec.Client,
		Tx:     rec.Tx,
		Detail: detail,
	}
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (client %d, tx %d): %s", e.Type, e.Kind.Error(), e.Client, e.Tx, e.Detail)
	}
	return fmt.Sprintf("%s: %s (client %d, tx %d)", e.Type, e.Kind.Error(), e.Client, e.Tx)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}
