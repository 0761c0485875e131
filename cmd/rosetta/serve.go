package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spounge-ai/rosetta/internal/infra/tracing"
	"github.com/spounge-ai/rosetta/pkg/patterns/lifecycle"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extension and the gRPC bridge until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	shutdownTracing, err := tracing.Setup(ctx, a.cfg.Tracing, a.cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			a.logger.Error("failed to flush traces", "error", err)
		}
	}()

	rt, err := a.container.NewRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	group, err := a.container.NewServerGroup(ctx, rt, lifecycle.DefaultShutdownTimeout)
	if err != nil {
		return err
	}

	a.logger.Info("rosetta started",
		"address", a.cfg.Server.Address,
		"storage", a.cfg.Storage.Backend,
		"tabs", len(rt.Browser.Tabs()),
		"version", a.cfg.ServiceVersion,
	)
	if err := group.Run(ctx); err != nil {
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
