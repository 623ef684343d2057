package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"payments_ledger/internal/bench"
	"payments_ledger/internal/config"
	"payments_ledger/pkg/crypto"
)

type benchCmd struct {
	engineFlags
	engine      string
	count       int
	disputeRate float64
	accounts    int
	streams     int
	signKey     string
	logLevel    string
}

func (*benchCmd) Name() string     { return "bench" }
func (*benchCmd) Synopsis() string { return "run a synthetic workload against the engines" }
func (*benchCmd) Usage() string {
	return `ledger bench [-engine all|<kind>] [-count n] [-dispute-rate r] [-accounts n]

  Generates deposits and withdrawals (every third record a withdrawal) plus
  disputes, runs them through the selected engines and reports timing,
  memory growth and whether the final snapshots agree.
`
}

func (c *benchCmd) SetFlags(f *flag.FlagSet) {
	c.engineFlags.register(f)
	f.StringVar(&c.engine, "engine", "all", "engine kind to measure, or all")
	f.IntVar(&c.count, "count", 100_000, "deposits and withdrawals to generate")
	f.Float64Var(&c.disputeRate, "dispute-rate", 0.1, "fraction of transactions disputed afterwards")
	f.IntVar(&c.accounts, "accounts", 1_000, "distinct clients in the workload")
	f.IntVar(&c.streams, "streams", 4, "input streams fed to the concurrent engine")
	f.StringVar(&c.signKey, "sign-key", "bench", "key used to compare snapshots")
	f.StringVar(&c.logLevel, "log-level", "error", "log level: debug, info, warn or error")
}

func (c *benchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := newLogger(c.logLevel)

	workload := bench.Workload{Count: c.count, DisputeRate: c.disputeRate, UniqueAccounts: c.accounts}
	if err := workload.Validate(); err != nil {
		fail(logger, "Invalid workload", err)
		return subcommands.ExitUsageError
	}

	kinds := []config.Kind{config.KindUnbounded, config.KindBounded, config.KindConcurrent}
	if c.engine != "all" {
		kind, err := config.ParseKind(c.engine)
		if err != nil {
			fail(logger, "Invalid engine", err)
			return subcommands.ExitUsageError
		}
		kinds = []config.Kind{kind}
	}

	recs := bench.Generate(workload)
	signer := crypto.NewSigner(c.signKey, logger)

	results := make([]bench.Result, 0, len(kinds))
	for _, kind := range kinds {
		cfg, err := c.engineFlags.resolve(f, kind, logger)
		if err != nil {
			fail(logger, "Invalid engine configuration", err)
			return subcommands.ExitUsageError
		}

		logger.Info("Running benchmark", slog.String("engine", string(cfg.Kind)), slog.Int("records", len(recs)))
		res, err := bench.Run(ctx, cfg, recs, c.streams, signer, logger)
		if err != nil {
			fail(logger, "Benchmark failed", err)
			return subcommands.ExitFailure
		}
		results = append(results, res)
	}

	if err := bench.WriteReport(os.Stdout, results); err != nil {
		fail(logger, "Failed to write report", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
