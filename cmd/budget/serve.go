package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

type serveCmd struct {
	port string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the ledger page and JSON API" }
func (*serveCmd) Usage() string {
	return `budget serve [-port <port>]

  Starts the HTTP server. Every browser gets its own ledger, stored under
  transactions:<session-id> in the configured store.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Listen port (default: PORT from the environment).")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime(ctx)
	if err != nil {
		cli.Fatal(err)
		return subcommands.ExitFailure
	}
	defer rt.close()
	if c.port != "" {
		rt.cfg.Port = c.port
	}

	ctx, stop := cli.ShutdownContext(ctx, rt.logger)
	defer stop()

	sessions := services.NewSessionManager(rt.backend.Store, rt.backend.Publisher, services.SessionConfig{
		TTL:         rt.cfg.SessionTTL,
		MaxSessions: rt.cfg.SessionCacheSize,
	}, rt.logger)

	caches := cache.NewManager(rt.logger)
	caches.Register(sessions.Cache())
	caches.StartCleanup(sweepInterval)
	defer caches.Stop()

	kv := rt.backend.Store
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + rt.cfg.Port,
		Sessions:           sessions,
		Formatter:          rt.formatter,
		Logger:             rt.logger,
		RateLimitPerMinute: rt.cfg.RateLimitPerMinute,
		Ready: func(ctx context.Context) error {
			_, err := kv.Get(ctx, rt.cfg.StoreKey)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		},
	})
	if err != nil {
		cli.Fatal(err)
		return subcommands.ExitFailure
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.logger.Info("Starting budget server",
			"port", rt.cfg.Port,
			log.FieldBackend, rt.cfg.StoreBackend,
			"events", rt.cfg.EventsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if ids := sessions.Unsaved(); len(ids) > 0 {
		rt.logger.Warn("Sessions left unsaved at shutdown", "sessions", ids)
	}
	if err != nil {
		rt.logger.Error("Server error", log.FieldError, err)
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rt.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return subcommands.ExitSuccess
}
