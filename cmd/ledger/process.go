package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"payments_ledger/internal/config"
	"payments_ledger/internal/csvio"
	"payments_ledger/internal/domain"
	"payments_ledger/internal/engine"
	"payments_ledger/internal/processor"
	"payments_ledger/pkg/crypto"
	"payments_ledger/pkg/metrics"
)

type processCmd struct {
	engineFlags
	engine      string
	output      string
	logLevel    string
	metricsAddr string
	metricsFile string
	signKey     string
}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "apply transaction CSV files and print the final accounts" }
func (*processCmd) Usage() string {
	return `ledger process [-engine <kind>] [-output <file>] <transactions.csv>...

  Applies every record of the input files to a fresh ledger and writes one
  CSV row per account. Several inputs are read one after the other, or in
  parallel by the concurrent engine.
`
}

func (c *processCmd) SetFlags(f *flag.FlagSet) {
	c.engineFlags.register(f)
	f.StringVar(&c.engine, "engine", string(config.KindUnbounded), "engine kind: unbounded, bounded or concurrent")
	f.StringVar(&c.output, "output", "", "output CSV file (defaults to stdout)")
	f.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while processing")
	f.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	f.StringVar(&c.signKey, "sign-key", "", "log an HMAC-SHA256 signature of the final accounts")
}

func (c *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	runID := uuid.NewString()
	base := newLogger(c.logLevel)
	logger := base.With(slog.String("run_id", runID))

	inputs := f.Args()
	if len(inputs) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	for _, input := range inputs {
		if err := checkInput(input); err != nil {
			fail(logger, "Invalid input", err)
			return subcommands.ExitUsageError
		}
	}

	kind, err := config.ParseKind(c.engine)
	if err != nil {
		fail(logger, "Invalid engine", err)
		return subcommands.ExitUsageError
	}
	cfg, err := c.engineFlags.resolve(f, kind, logger)
	if err != nil {
		fail(logger, "Invalid engine configuration", err)
		return subcommands.ExitUsageError
	}

	collector := metrics.NewMetricsCollector(logger)
	if c.metricsAddr != "" {
		collector.StartMetricsServer(c.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := collector.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	e, err := engine.New(cfg, engine.WithRecorder(collector))
	if err != nil {
		fail(logger, "Failed to build engine", err)
		return subcommands.ExitFailure
	}
	logEngineInfo(logger, "Engine ready", e.Info())

	proc := processor.NewProcessor(e, base, processor.WithRunID(runID))
	summary, err := c.run(ctx, proc, inputs)
	if err != nil {
		fail(logger, "Failed to process transactions", err)
		return subcommands.ExitFailure
	}
	logger.Info("Processing completed", slog.Any("summary", summary))

	snapshot := e.Snapshot()
	collector.SetAccounts(len(snapshot))
	logEngineInfo(logger, "Final engine state", e.Info())

	if err := writeOutput(c.output, snapshot); err != nil {
		fail(logger, "Failed to write accounts", err)
		return subcommands.ExitFailure
	}
	if c.signKey != "" {
		signer := crypto.NewSigner(c.signKey, logger)
		logger.Info("Snapshot signed", slog.String("signature", signer.SignSnapshot(snapshot)))
	}
	if c.metricsFile != "" {
		if err := collector.WriteTextfile(c.metricsFile); err != nil {
			fail(logger, "Failed to write metrics file", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *processCmd) run(ctx context.Context, proc *processor.Processor, inputs []string) (processor.Summary, error) {
	sources := make([]engine.Source, 0, len(inputs))
	for _, input := range inputs {
		file, err := os.Open(input)
		if err != nil {
			return processor.Summary{}, err
		}
		defer file.Close()

		sources = append(sources, csvio.NewReader(bufio.NewReader(file),
			csvio.WithInvalidRowHandler(proc.InvalidRowHandler(input))))
	}
	return proc.Process(ctx, sources...)
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %q is a directory", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("input file %q is not a CSV file", path)
	}
	return nil
}

func writeOutput(path string, accounts []domain.Account) error {
	if path == "" {
		return csvio.WriteAccounts(os.Stdout, accounts)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	err = errors.Join(csvio.WriteAccounts(w, accounts), w.Flush())
	return errors.Join(err, file.Close())
}
