package config

import (
	"fmt"
	"runtime"
	"strings"

	"payments_ledger/pkg/validator"
)

type Kind string

const (
	KindUnbounded  Kind = "unbounded"
	KindBounded    Kind = "bounded"
	KindConcurrent Kind = "concurrent"
)

const (
	DefaultMaxAccounts     = 10_000
	DefaultMaxTransactions = 50_000
	DefaultMaxTxIDs        = 1_000_000
)

// Estimated bytes per cache entry used by ForMemoryMB.
const (
	AccountEntryBytes     = 200
	TransactionEntryBytes = 100
	TxIDEntryBytes        = 4
)

// Limits are the entry capacities of the three bounded caches.
type Limits struct {
	MaxAccounts     int `validate:"gt=0"`
	MaxTransactions int `validate:"gt=0"`
	MaxTxIDs        int `validate:"gt=0"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxAccounts:     DefaultMaxAccounts,
		MaxTransactions: DefaultMaxTransactions,
		MaxTxIDs:        DefaultMaxTxIDs,
	}
}

// ForMemoryMB splits a memory budget across the caches: a quarter for
// accounts, half for stored transactions and a quarter for processed ids.
// Every capacity is at least one entry.
func ForMemoryMB(mb int) Limits {
	budget := int64(mb) * 1024 * 1024
	return Limits{
		MaxAccounts:     capacity(budget/4, AccountEntryBytes),
		MaxTransactions: capacity(budget/2, TransactionEntryBytes),
		MaxTxIDs:        capacity(budget/4, TxIDEntryBytes),
	}
}

func capacity(bytes, perEntry int64) int {
	return int(max(bytes/perEntry, 1))
}

// Config is the typed engine configuration.
type Config struct {
	Kind   Kind `validate:"required,oneof=unbounded bounded concurrent"`
	Limits Limits
	// MemoryLimitMB, when positive, replaces Limits during Resolve.
	MemoryLimitMB int `validate:"gte=0"`
	Lanes         int `validate:"gt=0"`
}

func Default() Config {
	return Config{
		Kind:   KindUnbounded,
		Limits: DefaultLimits(),
		Lanes:  runtime.GOMAXPROCS(0),
	}
}

func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindUnbounded, KindBounded, KindConcurrent:
		return kind, nil
	case "standard":
		return KindUnbounded, nil
	default:
		return "", fmt.Errorf("unknown engine kind %q (use unbounded, bounded or concurrent)", s)
	}
}

func (c Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}
	return nil
}

// Overrides records which limits the caller set explicitly.
type Overrides struct {
	MaxAccounts     bool
	MaxTransactions bool
	MaxTxIDs        bool
}

func (o Overrides) Any() bool {
	return o.MaxAccounts || o.MaxTransactions || o.MaxTxIDs
}

// Resolution explains adjustments Resolve made to the requested config.
type Resolution struct {
	IgnoredLimits     bool
	SwitchedToBounded bool
}

// Resolve applies the memory budget. A budget computes all three limits and
// explicit limits are dropped; limits are never mixed. A budget requested
// for the unbounded engine selects the bounded engine.
func Resolve(c Config, explicit Overrides) (Config, Resolution, error) {
	var res Resolution
	if c.MemoryLimitMB > 0 {
		c.Limits = ForMemoryMB(c.MemoryLimitMB)
		res.IgnoredLimits = explicit.Any()
		if c.Kind == KindUnbounded {
			c.Kind = KindBounded
			res.SwitchedToBounded = true
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, Resolution{}, err
	}
	return c, res, nil
}
