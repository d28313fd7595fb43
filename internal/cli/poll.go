package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/tick"
)

// PollResult is the outcome of the poll command.
type PollResult struct {
	Changed  bool               `json:"changed"`
	LastTick string             `json:"last_tick,omitempty"`
	Run      *reconcile.Summary `json:"run,omitempty"`
}

// NewPollCommand creates the poll command.
func NewPollCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Poll the tick endpoint once",
		Long: `Poll the tick endpoint once.

When the reported tick is newer than the last stored one it is stored,
announced, and reconciled against its raw records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(rootOpts, cmd)
		},
	}
}

func runPoll(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	rt, err := opts.newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	bus := tick.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	poller, err := rt.newPoller(bus, clock.WallClock)
	if err != nil {
		return err
	}
	if err := poller.Seed(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to seed tick poller", err)
	}

	changed, err := poller.PollOnce(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "tick poll failed", err)
	}

	res := PollResult{Changed: changed}
	if last := poller.Last(); !last.IsZero() {
		res.LastTick = last.Format(time.RFC3339)
	}

	if marker, ok := sub.TryNext(); ok {
		sum, err := reconcile.NewTickConsumer(rt.rec, rt.store).HandleMarker(ctx, marker)
		if err != nil {
			return WrapExitError(ExitFailure, "tick reconciliation failed", err)
		}
		res.Run = &sum
	}

	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		switch {
		case res.Changed:
			fmt.Fprintf(w, "New tick: %s\n", res.LastTick)
		case res.LastTick != "":
			fmt.Fprintf(w, "No new tick (last: %s)\n", res.LastTick)
		default:
			fmt.Fprintln(w, "No tick reported yet")
		}
		if res.Run != nil {
			writeSummary(w, *res.Run)
		}
	})
}
