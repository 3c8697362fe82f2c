package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/stampbook/internal/session"
	"github.com/roach88/stampbook/internal/tour"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Set        string
	Identifier string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Reconcile stamps and report completion",
		Long: `Run one reconciliation pass for a target set: merge the stamps stored on
this device with the remote record, report ownership and completion, and
record the completion notification the first time the tour is complete.

Examples:
  stampbook status
  stampbook status --set map_noar --id u1
  stampbook status --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "", "target set (default from config)")
	cmd.Flags().StringVar(&opts.Identifier, "id", "", "visitor identifier (default: device identifier)")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	a, err := openApp(opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.session(opts.Set, opts.Identifier)
	if err != nil {
		return err
	}
	st := s.Refresh(cmd.Context())

	return formatter(opts.RootOptions, cmd).Success(st, func(w io.Writer) {
		writeStatus(w, st)
	})
}

func writeStatus(w io.Writer, st session.Status) {
	fmt.Fprintf(w, "Set: %s (%d of %d required)\n", st.Set, st.Required, st.Total)
	id := st.Identifier
	if st.Anonymous {
		id += " (anonymous)"
	}
	fmt.Fprintf(w, "Visitor: %s\n", id)
	for _, spot := range sortedSpots(st.Ownership) {
		mark := " "
		if st.Ownership[spot] {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, spot)
	}
	fmt.Fprintf(w, "Stamps: %d/%d\n", st.Count, st.Required)
	if st.Completed {
		fmt.Fprintln(w, "Tour complete")
	} else {
		fmt.Fprintln(w, "Tour in progress")
	}
	if st.ShouldNotify {
		fmt.Fprintln(w, "Congratulations! All stamps collected.")
	}
	fmt.Fprintf(w, "State: %s\n", st.State)
	fmt.Fprintf(w, "Unlocked: complete=%t special=%t bonus=%t\n",
		st.Unlocks.CompleteLink, st.Unlocks.SpecialLink, st.Unlocks.BonusContent)
}

func sortedSpots(rec tour.Record) []tour.SpotID {
	spots := make([]tour.SpotID, 0, len(rec))
	for s := range rec {
		spots = append(spots, s)
	}
	slices.Sort(spots)
	return spots
}
