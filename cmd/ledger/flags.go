package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"payments_ledger/internal/config"
	"payments_ledger/internal/engine"
)

// newLogger builds the JSON logger written to stderr. An unknown level falls
// back to info.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.TrimSpace(level)))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	if err != nil {
		logger.Warn("Invalid log level, using info", slog.String("level", level))
	}
	return logger
}

// engineFlags are the engine tuning flags shared by every subcommand.
type engineFlags struct {
	maxAccounts     int
	maxTransactions int
	maxTxIDs        int
	memoryLimitMB   int
	lanes           int
}

func (e *engineFlags) register(f *flag.FlagSet) {
	defaults := config.Default()
	f.IntVar(&e.maxAccounts, "max-accounts", defaults.Limits.MaxAccounts, "accounts kept in memory (bounded and concurrent engines)")
	f.IntVar(&e.maxTransactions, "max-transactions", defaults.Limits.MaxTransactions, "disputable transactions kept in memory (bounded and concurrent engines)")
	f.IntVar(&e.maxTxIDs, "max-tx-ids", defaults.Limits.MaxTxIDs, "processed transaction ids kept in memory (bounded and concurrent engines)")
	f.IntVar(&e.memoryLimitMB, "memory-limit-mb", 0, "size the caches for this many MiB; overrides the max-* flags")
	f.IntVar(&e.lanes, "lanes", defaults.Lanes, "worker lanes of the concurrent engine")
}

// resolve turns the flags into a validated engine configuration and logs the
// adjustments made on the way.
func (e *engineFlags) resolve(f *flag.FlagSet, kind config.Kind, logger *slog.Logger) (config.Config, error) {
	var explicit config.Overrides
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "max-accounts":
			explicit.MaxAccounts = true
		case "max-transactions":
			explicit.MaxTransactions = true
		case "max-tx-ids":
			explicit.MaxTxIDs = true
		}
	})

	cfg := config.Config{
		Kind: kind,
		Limits: config.Limits{
			MaxAccounts:     e.maxAccounts,
			MaxTransactions: e.maxTransactions,
			MaxTxIDs:        e.maxTxIDs,
		},
		MemoryLimitMB: e.memoryLimitMB,
		Lanes:         e.lanes,
	}
	resolved, res, err := config.Resolve(cfg, explicit)
	if err != nil {
		return config.Config{}, err
	}

	if res.IgnoredLimits {
		logger.Warn("Memory limit set, ignoring explicit max-* flags",
			slog.Int("memory_limit_mb", e.memoryLimitMB))
	}
	if res.SwitchedToBounded {
		logger.Info("Memory limit set, using the bounded engine")
	}
	if resolved.MemoryLimitMB > 0 {
		logger.Info("Auto-sized caches",
			slog.Int("memory_limit_mb", resolved.MemoryLimitMB),
			slog.Int("max_accounts", resolved.Limits.MaxAccounts),
			slog.Int("max_transactions", resolved.Limits.MaxTransactions),
			slog.Int("max_tx_ids", resolved.Limits.MaxTxIDs))
	}
	return resolved, nil
}

func logEngineInfo(logger *slog.Logger, msg string, info engine.Info) {
	attrs := []any{
		slog.String("engine", string(info.Kind)),
		slog.Bool("memory_bounded", info.MemoryBounded),
		slog.Bool("concurrent", info.Concurrent),
		slog.Int("accounts", info.Accounts),
		slog.Int("stored_transactions", info.StoredTransactions),
		slog.Int("processed_ids", info.ProcessedIDs),
	}
	if info.Limits != nil {
		attrs = append(attrs, slog.Group("limits",
			slog.Int("max_accounts", info.Limits.MaxAccounts),
			slog.Int("max_transactions", info.Limits.MaxTransactions),
			slog.Int("max_tx_ids", info.Limits.MaxTxIDs)))
	}
	if info.Concurrent {
		attrs = append(attrs, slog.Int("lanes", info.Lanes))
	}
	logger.Info(msg, attrs...)
}

func fail(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
}
