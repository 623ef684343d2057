package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/engine"
)

// runner is implemented by engines that consume several sources at once.
type runner interface {
	Run(ctx context.Context, sources []engine.Source, report func(engine.Outcome)) error
}

// Summary counts what happened during one Process call.
type Summary struct {
	RunID       string
	Applied     int
	Rejected    map[domain.ErrorKind]int
	InvalidRows int
	Duration    time.Duration
}

func (s Summary) TotalRejected() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// LogValue flattens the summary into log attributes.
func (s Summary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", s.RunID),
		slog.Int("applied", s.Applied),
		slog.Int("rejected", s.TotalRejected()),
		slog.Int("invalid_rows", s.InvalidRows),
		slog.Duration("duration", s.Duration),
	}
	for _, kind := range domain.ErrorKinds {
		if n := s.Rejected[kind]; n > 0 {
			attrs = append(attrs, slog.Int("rejected_"+kind.String(), n))
		}
	}
	return slog.GroupValue(attrs...)
}

type Option func(*Processor)

func WithRunID(id string) Option {
	return func(p *Processor) {
		if id != "" {
			p.runID = id
		}
	}
}

// Processor feeds record sources into an engine. Rejected records are logged
// and counted; they never stop a run.
type Processor struct {
	engine engine.Engine
	logger *slog.Logger
	runID  string

	mu      sync.Mutex
	summary Summary
}

func NewProcessor(e engine.Engine, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		engine: e,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.With(slog.String("run_id", p.runID))
	p.reset()
	return p
}

func (p *Processor) RunID() string {
	return p.runID
}

// Process applies every record of sources. Sources are read one after the
// other unless the engine can consume them concurrently. The returned error
// is a source or context failure; the summary is valid either way.
func (p *Processor) Process(ctx context.Context, sources ...engine.Source) (Summary, error) {
	start := time.Now()
	p.reset()

	var err error
	if r, ok := p.engine.(runner); ok {
		err = r.Run(ctx, sources, func(o engine.Outcome) {
			p.record(ctx, o.Record, o.Err)
		})
	} else {
		err = p.sequential(ctx, sources)
	}

	summary := p.Summary()
	summary.Duration = time.Since(start)
	return summary, err
}

func (p *Processor) sequential(ctx context.Context, sources []engine.Source) error {
	for i, src := range sources {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := src.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			p.record(ctx, rec, p.engine.Apply(rec))
		}
	}
	return nil
}

func (p *Processor) record(ctx context.Context, rec domain.Record, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		p.summary.Applied++
		p.logger.DebugContext(ctx, "Record applied", slog.String("record", rec.String()))
		return
	}

	kind, _ := domain.KindOf(err)
	p.summary.Rejected[kind]++
	p.logger.WarnContext(ctx, "Record rejected",
		slog.String("type", rec.Type.String()),
		slog.Int("client", int(rec.Client)),
		slog.Int64("tx", int64(rec.Tx)),
		slog.String("reason", kind.String()),
		slog.String("error", err.Error()))
}

// InvalidRowHandler returns a callback for input adapters that counts and
// logs rows which could not be parsed.
func (p *Processor) InvalidRowHandler(source string) func(line int, err error) {
	return func(line int, err error) {
		p.mu.Lock()
		p.summary.InvalidRows++
		p.mu.Unlock()

		p.logger.Warn("Skipping malformed row",
			slog.String("source", source),
			slog.Int("line", line),
			slog.String("error", err.Error()))
	}
}

// Summary returns the counters of the current or last run.
func (p *Processor) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.summary
	s.Rejected = maps.Clone(p.summary.Rejected)
	return s
}

func (p *Processor) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = Summary{RunID: p.runID, Rejected: map[domain.ErrorKind]int{}}
}
