package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/store"
	"github.com/roach88/ticktrack/internal/tick"
)

// ReconcileOptions holds flags for the reconcile commands.
type ReconcileOptions struct {
	*RootOptions
	DryRun bool
}

// NewReconcileCommand creates the reconcile command and its subcommands.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single reconciliation",
		Long: `Run one reconciliation outside the service loop.

State writes always happen. With --dry-run no notification is sent.`,
	}
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "discard notifications")

	cmd.AddCommand(newReconcileTickCommand(opts))
	cmd.AddCommand(newReconcileMirrorCommand(opts))
	return cmd
}

func newReconcileTickCommand(opts *ReconcileOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tick [marker]",
		Short: "Reconcile against the raw records of a tick",
		Long: `Reconcile against the raw records of a tick marker.

The marker is an RFC 3339 timestamp. Without one, the last stored tick is
used.

Examples:
  ticktrack reconcile tick
  ticktrack reconcile tick 2026-03-01T12:00:00Z --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcileTick(opts, cmd, args)
		},
	}
}

func newReconcileMirrorCommand(opts *ReconcileOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Run one fallback scan against the mirror table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcileMirror(opts, cmd)
		},
	}
}

func runReconcileTick(opts *ReconcileOptions, cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	rt, err := opts.newRuntime(opts.DryRun)
	if err != nil {
		return err
	}
	defer rt.close()

	var marker time.Time
	if len(args) == 1 {
		marker, err = tick.ParseMarker(args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid marker", err)
		}
	} else {
		latest, err := rt.store.LatestTick(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, "no tick recorded yet; pass a marker")
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read last tick", err)
		}
		marker = latest.Marker
	}

	sum, err := reconcile.NewTickConsumer(rt.rec, rt.store).HandleMarker(ctx, marker)
	if err != nil {
		return WrapExitError(ExitFailure, "tick reconciliation failed", err)
	}
	return reportSummary(opts.RootOptions, cmd, sum)
}

func runReconcileMirror(opts *ReconcileOptions, cmd *cobra.Command) error {
	rt, err := opts.newRuntime(opts.DryRun)
	if err != nil {
		return err
	}
	defer rt.close()

	sum, err := rt.newScanner(nil).ScanOnce(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitFailure, "mirror reconciliation failed", err)
	}
	return reportSummary(opts.RootOptions, cmd, sum)
}

func reportSummary(opts *RootOptions, cmd *cobra.Command, sum reconcile.Summary) error {
	err := opts.formatter(cmd).Success(sum, func(w io.Writer) {
		writeSummary(w, sum)
	})
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d conflict state writes failed", sum.Failed))
	}
	return nil
}

func writeSummary(w io.Writer, sum reconcile.Summary) {
	if sum.Skipped != "" {
		fmt.Fprintf(w, "Run %s (%s) skipped: %s\n", sum.RunID, sum.Source, sum.Skipped)
		return
	}
	fmt.Fprintf(w, "Run %s (%s, confirmed by %s)\n", sum.RunID, sum.Source, sum.ConfirmedBy)
	fmt.Fprintf(w, "  New: %d  Scored: %d  Resolved: %d  Unchanged: %d  Gone: %d  Failed: %d\n",
		sum.New, sum.Scored, sum.Resolved, sum.Unchanged, sum.Gone, sum.Failed)
	if sum.SweepSkipped {
		fmt.Fprintln(w, "  Sweep skipped: mirror returned no rows")
	}
}
