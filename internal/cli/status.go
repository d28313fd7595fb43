package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ticktrack/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Stale time.Duration
}

// StatusResult is the output of the status command.
type StatusResult struct {
	LastTick  *TickView      `json:"last_tick,omitempty"`
	Parties   []string       `json:"parties"`
	Stale     string         `json:"stale_after,omitempty"`
	Conflicts []ConflictView `json:"conflicts"`
}

// TickView is a stored tick.
type TickView struct {
	Marker     string `json:"marker"`
	Handle     string `json:"handle,omitempty"`
	ObservedAt string `json:"observed_at"`
}

// ConflictView is a stored conflict state.
type ConflictView struct {
	Location    string `json:"location"`
	Kind        string `json:"kind"`
	Side1       string `json:"side1"`
	Side2       string `json:"side2"`
	Score       string `json:"score"`
	ConfirmedBy string `json:"confirmed_by"`
	ConfirmedAt string `json:"confirmed_at"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last tick and tracked conflict states",
		Long: `Show the last stored tick, the tracked parties and every stored conflict.

With --stale, only conflicts not confirmed within the given duration are
listed.

Examples:
  ticktrack status
  ticktrack status --stale 2h --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Stale, "stale", 0, "only list conflicts not confirmed within this duration")
	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	if opts.Stale < 0 {
		return NewExitError(ExitCommandError, "--stale must not be negative")
	}

	_, st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	res := StatusResult{Conflicts: []ConflictView{}}

	latest, err := st.LatestTick(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return WrapExitError(ExitFailure, "failed to read last tick", err)
	default:
		res.LastTick = &TickView{
			Marker:     latest.Marker.Format(time.RFC3339),
			Handle:     latest.Handle,
			ObservedAt: latest.ObservedAt.Format(time.RFC3339),
		}
	}

	res.Parties, err = st.TrackedParties(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read tracked parties", err)
	}

	var states []store.ConflictState
	if opts.Stale > 0 {
		res.Stale = opts.Stale.String()
		states, err = st.StaleConflictStates(ctx, time.Now().Add(-opts.Stale))
	} else {
		states, err = st.ConflictStates(ctx)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read conflict states", err)
	}
	for _, s := range states {
		r := s.Record
		res.Conflicts = append(res.Conflicts, ConflictView{
			Location:    r.Location,
			Kind:        r.Kind,
			Side1:       r.Side1.Name,
			Side2:       r.Side2.Name,
			Score:       r.Score(),
			ConfirmedBy: s.ConfirmedBy,
			ConfirmedAt: s.ConfirmedAt.Format(time.RFC3339),
		})
	}

	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		writeStatus(w, res)
	})
}

func writeStatus(w io.Writer, res StatusResult) {
	if res.LastTick == nil {
		fmt.Fprintln(w, "Last tick: none")
	} else {
		handle := res.LastTick.Handle
		if handle == "" {
			handle = "unresolved"
		}
		fmt.Fprintf(w, "Last tick: %s (handle %s)\n", res.LastTick.Marker, handle)
	}
	fmt.Fprintf(w, "Tracked parties: %d\n", len(res.Parties))

	if res.Stale != "" {
		fmt.Fprintf(w, "Conflicts not confirmed within %s: %d\n", res.Stale, len(res.Conflicts))
	} else {
		fmt.Fprintf(w, "Conflicts: %d\n", len(res.Conflicts))
	}
	for _, c := range res.Conflicts {
		fmt.Fprintf(w, "  %s: %s %s vs %s, %s (confirmed by %s at %s)\n",
			c.Location, c.Kind, c.Side1, c.Side2, c.Score, c.ConfirmedBy, c.ConfirmedAt)
	}
}
