package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// PartiesResult is the output of the parties commands.
type PartiesResult struct {
	Parties []string `json:"parties"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// NewPartiesCommand creates the parties command and its subcommands.
func NewPartiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parties",
		Short: "Manage tracked parties",
		Long: `Manage the set of tracked parties.

Only conflicts involving a tracked party are reconciled and announced.
Names match case-insensitively.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tracked parties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParties(rootOpts, cmd, nil, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: "Track one or more parties",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParties(rootOpts, cmd, args, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove NAME...",
		Short: "Stop tracking one or more parties",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParties(rootOpts, cmd, nil, args)
		},
	})

	return cmd
}

func runParties(opts *RootOptions, cmd *cobra.Command, add, remove []string) error {
	ctx := commandContext(cmd)

	_, st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	var res PartiesResult
	for _, name := range add {
		if err := st.AddTrackedParty(ctx, name); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to add party %q", name), err)
		}
		res.Added = append(res.Added, name)
	}
	for _, name := range remove {
		ok, err := st.RemoveTrackedParty(ctx, name)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to remove party %q", name), err)
		}
		if ok {
			res.Removed = append(res.Removed, name)
		} else {
			res.Missing = append(res.Missing, name)
		}
	}

	res.Parties, err = st.TrackedParties(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read tracked parties", err)
	}

	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		for _, name := range res.Missing {
			fmt.Fprintf(w, "Not tracked: %s\n", name)
		}
		if len(res.Parties) == 0 {
			fmt.Fprintln(w, "No tracked parties")
			return
		}
		fmt.Fprintf(w, "Tracked parties (%d):\n", len(res.Parties))
		for _, name := range res.Parties {
			fmt.Fprintf(w, "  %s\n", name)
		}
	})
}
