package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/roach88/ticktrack/internal/daemon"
	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/tick"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the poller, tick consumer and fallback scanner",
		Long: `Run ticktrack as a service.

The tick poller is seeded from the last stored tick, then polls the tick
endpoint every tick.interval. Each new tick is published to the tick
consumer, which reconciles against the raw records of that tick. When
fallback.enabled is set, the fallback scanner reconciles against the mirror
table every fallback.interval.

Stops on SIGINT or SIGTERM.

Example:
  ticktrack serve --config ./ticktrack.yaml
  TICKTRACK_TICK_URL=https://example.test/tick ticktrack serve --db ./state.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	rt, err := opts.newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	bus := tick.NewBus()
	defer bus.Close()

	poller, err := rt.newPoller(bus, clock.WallClock)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := poller.Seed(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to seed tick poller", err)
	}

	// Subscribe before the poller starts so no marker is missed.
	sub := bus.Subscribe()
	consumer := reconcile.NewTickConsumer(rt.rec, rt.store)

	var g daemon.Group
	g.Go(ctx, "tick-poller", poller.Run)
	g.Go(ctx, "tick-consumer", func(ctx context.Context) error {
		return consumer.Run(ctx, sub)
	})
	if rt.cfg.Fallback.Enabled {
		g.Go(ctx, "fallback-scanner", rt.newScanner(clock.WallClock).Run)
	} else {
		slog.Info("fallback scanner disabled")
	}

	slog.Info("ticktrack started",
		"db", rt.cfg.Database,
		"tick_interval", rt.cfg.Tick.Interval.String(),
		"fallback_enabled", rt.cfg.Fallback.Enabled,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "ticktrack started. Press Ctrl-C to stop.")

	<-ctx.Done()
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "daemon failure", err)
	}

	slog.Info("ticktrack stopped gracefully")
	return nil
}
