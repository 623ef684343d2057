package domain

import (
	"github.com/shopspring/decimal"
)

// Account holds the balances of one client. Total is always derived from
// Available and Held so the two can never drift apart.
type Account struct {
	Client    ClientID        `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Locked    bool            `json:"locked"`
}

func NewAccount(client ClientID) Account {
	return Account{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}
