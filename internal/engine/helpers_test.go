package engine

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payments_ledger/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type sliceSource struct {
	recs []domain.Record
	pos  int
	err  error
}

func (s *sliceSource) Next() (domain.Record, error) {
	if s.pos >= len(s.recs) {
		if s.err != nil {
			return domain.Record{}, s.err
		}
		return domain.Record{}, io.EOF
	}
	rec := s.recs[s.pos]
	s.pos++
	return rec, nil
}

// workload builds a deterministic mix of all record types for the given
// clients. Transaction ids are unique.
func workload(clients, perClient int) []domain.Record {
	var recs []domain.Record
	tx := domain.TxID(1)
	for round := 0; round < perClient; round++ {
		for c := 1; c <= clients; c++ {
			client := domain.ClientID(c)
			amount := decimal.New(int64(100+round*7+c), -2)

			deposit := tx
			recs = append(recs, domain.Deposit(client, deposit, amount))
			tx++

			switch round % 5 {
			case 1:
				recs = append(recs, domain.Withdrawal(client, tx, amount.Div(decimal.NewFromInt(2))))
				tx++
			case 2:
				recs = append(recs, domain.Dispute(client, deposit), domain.Resolve(client, deposit))
			case 3:
				recs = append(recs, domain.Dispute(client, deposit))
			case 4:
				if c%4 == 0 {
					recs = append(recs, domain.Dispute(client, deposit), domain.Chargeback(client, deposit))
				} else {
					recs = append(recs, domain.Withdrawal(client, tx, decimal.NewFromInt(1_000_000)))
					tx++
				}
			}
		}
	}
	return recs
}

// splitByClient spreads records over n sources, keeping every client in a
// single source.
func splitByClient(recs []domain.Record, n int) [][]domain.Record {
	out := make([][]domain.Record, n)
	for _, rec := range recs {
		i := int(rec.Client) % n
		out[i] = append(out[i], rec)
	}
	return out
}

func canonical(accounts []domain.Account) []string {
	rows := make([]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, fmt.Sprintf("%d|%s|%s|%s|%t",
			a.Client, a.Available.StringFixed(4), a.Held.StringFixed(4), a.Total().StringFixed(4), a.Locked))
	}
	sort.Strings(rows)
	return rows
}

func applyAll(t *testing.T, e Engine, recs []domain.Record) []error {
	t.Helper()
	errs := make([]error, len(recs))
	for i, rec := range recs {
		errs[i] = e.Apply(rec)
	}
	return errs
}

type countingRecorder struct {
	mu        sync.Mutex
	applied   int
	rejected  map[domain.ErrorKind]int
	evictions map[string]int
	lanes     map[int]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		rejected:  map[domain.ErrorKind]int{},
		evictions: map[string]int{},
		lanes:     map[int]int{},
	}
}

func (r *countingRecorder) ObserveApply(_ domain.Record, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.applied++
		return
	}
	kind, _ := domain.KindOf(err)
	r.rejected[kind]++
}

func (r *countingRecorder) ObserveEviction(cache string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions[cache]++
}

func (r *countingRecorder) ObserveLane(lane int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lanes[lane]++
}
