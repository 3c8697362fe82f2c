package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// VisitOptions holds flags for the visit command.
type VisitOptions struct {
	*RootOptions
	Identifier string
}

// NewVisitCommand creates the visit command.
func NewVisitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VisitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "visit <spot>",
		Short: "Record a stamp for a spot",
		Long: `Record that the visitor reached a spot. The stamp is stored on this device
first; when an identifier is known it is also written to the remote record.

Example:
  stampbook visit spot7 --id u1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Identifier, "id", "", "visitor identifier (default: device identifier)")

	return cmd
}

func runVisit(opts *VisitOptions, spot string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	a, err := openApp(opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.visitor(opts.Identifier).Record(cmd.Context(), spot)
	if err != nil {
		if opts.Format == "json" {
			_ = formatter(opts.RootOptions, cmd).Error(ErrCodeInput, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "visit rejected", err)
	}

	return formatter(opts.RootOptions, cmd).Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "Stamped %s for %s\n", out.Spot, out.Identifier)
		switch {
		case out.RemoteSaved:
			fmt.Fprintln(w, "Saved to remote record")
		case out.Anonymous:
			fmt.Fprintln(w, "Saved on this device only (anonymous)")
		default:
			fmt.Fprintln(w, "Saved on this device only (remote unavailable)")
		}
	})
}
