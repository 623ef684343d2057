package csvio

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"payments_ledger/internal/domain"
)

var accountHeader = []string{"client", "available", "held", "total", "locked"}

// minFractionDigits is the minimum number of fractional digits written for
// every amount. Amounts with more digits are written in full.
const minFractionDigits = 4

// WriteAccounts writes one row per account, ordered by client id.
func WriteAccounts(w io.Writer, accounts []domain.Account) error {
	sorted := slices.Clone(accounts)
	slices.SortFunc(sorted, func(a, b domain.Account) int {
		return int(a.Client) - int(b.Client)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(accountHeader); err != nil {
		return err
	}
	for _, a := range sorted {
		err := cw.Write([]string{
			strconv.FormatUint(uint64(a.Client), 10),
			FormatAmount(a.Available),
			FormatAmount(a.Held),
			FormatAmount(a.Total()),
			strconv.FormatBool(a.Locked),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatAmount renders d with at least four fractional digits and never
// rounds.
func FormatAmount(d decimal.Decimal) string {
	places := max(int32(minFractionDigits), -d.Exponent())
	return d.StringFixed(places)
}
