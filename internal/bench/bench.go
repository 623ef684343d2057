// Package bench generates synthetic workloads and measures how each engine
// copes with them.
package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/shopspring/decimal"

	"payments_ledger/internal/config"
	"payments_ledger/internal/domain"
	"payments_ledger/internal/engine"
	"payments_ledger/internal/processor"
	"payments_ledger/pkg/crypto"
	"payments_ledger/pkg/validator"
)

// Workload describes a synthetic input.
type Workload struct {
	Count          int     `validate:"gt=0"`
	DisputeRate    float64 `validate:"gte=0,lte=1"`
	UniqueAccounts int     `validate:"gt=0,lte=65535"`
}

func (w Workload) Validate() error {
	return validator.Struct(w)
}

// Generate builds Count deposits and withdrawals, every third one a
// withdrawal, spread round-robin over UniqueAccounts clients. A dispute is
// then appended for the first Count*DisputeRate transaction ids.
func Generate(w Workload) []domain.Record {
	disputes := int(float64(w.Count) * w.DisputeRate)
	recs := make([]domain.Record, 0, w.Count+disputes)

	for i := 0; i < w.Count; i++ {
		tx := domain.TxID(i + 1)
		client := domain.ClientID(i%w.UniqueAccounts + 1)
		amount := decimal.New(int64(i%10_000)+100, -2)

		if i%3 == 0 {
			recs = append(recs, domain.Withdrawal(client, tx, amount))
		} else {
			recs = append(recs, domain.Deposit(client, tx, amount))
		}
	}
	for i := 0; i < disputes; i++ {
		recs = append(recs, domain.Dispute(domain.ClientID(i%w.UniqueAccounts+1), domain.TxID(i+1)))
	}
	return recs
}

// Result is the outcome of running one engine over a workload.
type Result struct {
	Engine    config.Kind
	Records   int
	Streams   int
	Duration  time.Duration
	RSSDelta  int64
	Accounts  int
	Applied   int
	Rejected  int
	Signature string
}

func (r Result) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Records) / r.Duration.Seconds()
}

// Run processes recs with the engine described by cfg. For the concurrent
// engine the records are split into streams sources, each client staying in
// one source.
func Run(ctx context.Context, cfg config.Config, recs []domain.Record, streams int, signer *crypto.Signer, logger *slog.Logger) (Result, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return Result{}, err
	}

	sources := []engine.Source{&sliceSource{recs: recs}}
	if cfg.Kind == config.KindConcurrent && streams > 1 {
		sources = splitByClient(recs, streams)
	}

	before := residentBytes()
	proc := processor.NewProcessor(e, logger)
	summary, err := proc.Process(ctx, sources...)
	if err != nil {
		return Result{}, fmt.Errorf("%s engine: %w", cfg.Kind, err)
	}
	after := residentBytes()

	snapshot := e.Snapshot()
	return Result{
		Engine:    cfg.Kind,
		Records:   len(recs),
		Streams:   len(sources),
		Duration:  summary.Duration,
		RSSDelta:  int64(after) - int64(before),
		Accounts:  len(snapshot),
		Applied:   summary.Applied,
		Rejected:  summary.TotalRejected(),
		Signature: signer.SignSnapshot(snapshot),
	}, nil
}

// Agree reports whether every result produced the same snapshot.
func Agree(results []Result) bool {
	if len(results) == 0 {
		return true
	}
	for _, r := range results[1:] {
		if r.Signature != results[0].Signature {
			return false
		}
	}
	return true
}

// WriteReport prints one line per result followed by host memory figures.
func WriteReport(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tRECORDS\tSTREAMS\tDURATION\tREC/S\tRSS DELTA\tACCOUNTS\tAPPLIED\tREJECTED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.0f\t%s\t%d\t%d\t%d\n",
			r.Engine, r.Records, r.Streams, r.Duration.Round(time.Microsecond), r.Throughput(),
			formatBytes(r.RSSDelta), r.Accounts, r.Applied, r.Rejected)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(results) > 1 {
		fmt.Fprintf(w, "snapshots agree: %t\n", Agree(results))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "host memory: %s total, %s available (%.1f%% used)\n",
			formatBytes(int64(vm.Total)), formatBytes(int64(vm.Available)), vm.UsedPercent)
	}
	return nil
}

func residentBytes() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0
	}
	return info.RSS
}

func formatBytes(n int64) string {
	const unit = 1024
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	if n < unit {
		return fmt.Sprintf("%s%d B", sign, n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %ciB", sign, float64(n)/float64(div), "KMGTPE"[exp])
}

type sliceSource struct {
	recs []domain.Record
	pos  int
}

func (s *sliceSource) Next() (domain.Record, error) {
	if s.pos >= len(s.recs) {
		return domain.Record{}, io.EOF
	}
	rec := s.recs[s.pos]
	s.pos++
	return rec, nil
}

func splitByClient(recs []domain.Record, n int) []engine.Source {
	parts := make([][]domain.Record, n)
	for _, rec := range recs {
		i := int(rec.Client) % n
		parts[i] = append(parts[i], rec)
	}
	sources := make([]engine.Source, n)
	for i, part := range parts {
		sources[i] = &sliceSource{recs: part}
	}
	return sources
}
