package engine

import (
	"fmt"
	"time"

	"payments_ledger/internal/config"
	"payments_ledger/internal/domain"
)

// Engine is what adapters drive: one Apply per input record, then a single
// Snapshot once the input is exhausted.
type Engine interface {
	Apply(rec domain.Record) error
	Snapshot() []domain.Account
	Info() Info
}

// Info describes an engine and its current occupancy.
type Info struct {
	Kind               config.Kind
	MemoryBounded      bool
	Concurrent         bool
	Accounts           int
	StoredTransactions int
	ProcessedIDs       int
	Limits             *config.Limits
	Lanes              int
}

// Recorder observes engine activity. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveApply(rec domain.Record, err error, elapsed time.Duration)
	ObserveEviction(cache string)
	ObserveLane(lane int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveApply(domain.Record, error, time.Duration) {}
func (nopRecorder) ObserveEviction(string)                           {}
func (nopRecorder) ObserveLane(int)                                  {}

type options struct {
	recorder Recorder
}

type Option func(*options)

// WithRecorder reports applies, evictions and lane activity to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the engine selected by cfg. cfg is expected to be resolved
// already (see config.Resolve).
func New(cfg config.Config, opts ...Option) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case config.KindUnbounded:
		return NewUnbounded(opts...), nil
	case config.KindBounded:
		return NewBounded(cfg.Limits, opts...)
	case config.KindConcurrent:
		return NewConcurrent(cfg.Limits, cfg.Lanes, opts...)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
}
