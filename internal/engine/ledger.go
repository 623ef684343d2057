package engine

import (
	"time"

	"payments_ledger/internal/config"
	"payments_ledger/internal/domain"
	"payments_ledger/internal/ledger"
	"payments_ledger/internal/repository"
	"payments_ledger/internal/repository/lru"
	"payments_ledger/internal/repository/memory"
)

var (
	_ Engine        = (*Ledger)(nil)
	_ ledger.Reader = (*Ledger)(nil)
)

// Ledger is the single-threaded engine. It is either unbounded or bounded
// depending on the repositories it was built with.
type Ledger struct {
	kind         config.Kind
	limits       *config.Limits
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	processed    repository.ProcessedRepository
	recorder     Recorder
}

func NewUnbounded(opts ...Option) *Ledger {
	o := buildOptions(opts)
	return &Ledger{
		kind:         config.KindUnbounded,
		accounts:     memory.NewAccountRepository(),
		transactions: memory.NewTransactionRepository(),
		processed:    memory.NewProcessedRepository(),
		recorder:     o.recorder,
	}
}

func NewBounded(limits config.Limits, opts ...Option) (*Ledger, error) {
	o := buildOptions(opts)
	onEvict := lru.EvictFunc(o.recorder.ObserveEviction)

	accounts, err := lru.NewAccountRepository(limits.MaxAccounts, onEvict)
	if err != nil {
		return nil, err
	}
	transactions, err := lru.NewTransactionRepository(limits.MaxTransactions, onEvict)
	if err != nil {
		return nil, err
	}
	processed, err := lru.NewProcessedRepository(limits.MaxTxIDs, onEvict)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		kind:         config.KindBounded,
		limits:       &limits,
		accounts:     accounts,
		transactions: transactions,
		processed:    processed,
		recorder:     o.recorder,
	}, nil
}

// Apply evaluates rec and commits the resulting writes. A rejected record
// leaves the state untouched.
func (l *Ledger) Apply(rec domain.Record) error {
	start := time.Now()
	err := l.apply(rec)
	l.recorder.ObserveApply(rec, err, time.Since(start))
	return err
}

func (l *Ledger) apply(rec domain.Record) error {
	delta, err := ledger.Evaluate(l, rec)
	if err != nil {
		return err
	}

	if delta.Transaction != nil {
		l.transactions.Put(*delta.Transaction)
	}
	if delta.Account != nil {
		l.accounts.Put(*delta.Account)
	}
	if delta.MarkProcessed {
		l.processed.Mark(delta.Tx)
	}
	return nil
}

// Snapshot returns every resident account in no particular order.
func (l *Ledger) Snapshot() []domain.Account {
	return l.accounts.All()
}

func (l *Ledger) Info() Info {
	var limits *config.Limits
	if l.limits != nil {
		copied := *l.limits
		limits = &copied
	}
	return Info{
		Kind:               l.kind,
		MemoryBounded:      limits != nil,
		Accounts:           l.accounts.Len(),
		StoredTransactions: l.transactions.Len(),
		ProcessedIDs:       l.processed.Len(),
		Limits:             limits,
	}
}

func (l *Ledger) Account(client domain.ClientID) (domain.Account, bool) {
	return l.accounts.Get(client)
}

func (l *Ledger) Transaction(tx domain.TxID) (domain.StoredTransaction, bool) {
	return l.transactions.Get(tx)
}

func (l *Ledger) Seen(tx domain.TxID) bool {
	return l.processed.Seen(tx)
}
