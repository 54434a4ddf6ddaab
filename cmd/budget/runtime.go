package main

import (
	"context"
	"fmt"
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/present"
	"budget/internal/services"
)

// cliSession names the single ledger the CLI works on in event payloads.
const cliSession = "cli"

// runtime is what every subcommand needs after bootstrap.
type runtime struct {
	cfg       *config.Config
	logger    *log.Logger
	backend   *backend.BackendResult
	formatter *present.Formatter
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, logger, err := cli.Bootstrap(os.Stderr)
	if err != nil {
		return nil, err
	}
	formatter, err := present.NewFormatter(cfg.Currency)
	if err != nil {
		return nil, err
	}
	res, err := cli.InitBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, backend: res, formatter: formatter}, nil
}

func (rt *runtime) close() {
	if err := rt.backend.Cleanup(); err != nil {
		rt.logger.Warn("Backend cleanup failed", log.FieldError, err)
	}
}

// openLedger opens the single-session ledger stored under STORE_KEY.
func (rt *runtime) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	return services.OpenLedger(ctx, rt.backend.Store, rt.cfg.StoreKey, rt.backend.Publisher, cliSession, rt.logger)
}

// reportUnsaved warns that a mutation was kept in memory only. The next
// successful write of the same key carries it.
func reportUnsaved(err error) {
	fmt.Fprintf(os.Stderr, "warning: change applied but not saved: %v\n", err)
}
