package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stampbook/internal/survey"
)

// SurveyOptions holds flags for the survey commands.
type SurveyOptions struct {
	*RootOptions
	Identifier string
	Answers    string
	ReturnTo   string
}

// NewSurveyCommand creates the survey command group.
func NewSurveyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SurveyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Submit or sync the post-visit survey",
	}
	cmd.PersistentFlags().StringVar(&opts.Identifier, "id", "", "visitor identifier (default: device identifier)")

	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit survey answers",
		Long: `Submit survey answers given as a JSON object, or @file to read them from a
file. Answers that cannot be sent are kept on this device for "survey sync".

Examples:
  stampbook survey submit --answers '{"fun":"5","usability":"4"}' --id u1
  stampbook survey submit --answers @answers.json --return-to map_noar.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurveySubmit(opts, cmd)
		},
	}
	submit.Flags().StringVar(&opts.Answers, "answers", "", "answers as a JSON object or @file (required)")
	submit.Flags().StringVar(&opts.ReturnTo, "return-to", "", "page to return to after submitting")
	_ = submit.MarkFlagRequired("answers")

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Send survey answers kept on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurveySync(opts, cmd)
		},
	}

	cmd.AddCommand(submit, sync)
	return cmd
}

// SurveySubmitResult is the submit command's output.
type SurveySubmitResult struct {
	survey.Outcome
	ReturnTo string `json:"return_to"`
}

func runSurveySubmit(opts *SurveyOptions, cmd *cobra.Command) error {
	answers, err := readAnswers(opts.Answers)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid answers", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	a, err := openApp(opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.surveys(opts.Identifier).Submit(cmd.Context(), survey.Submission{
		Answers: answers,
		Client:  map[string]string{"agent": "stampbook-cli"},
	})
	if err != nil {
		return WrapExitError(ExitFailure, "survey rejected", err)
	}

	res := SurveySubmitResult{
		Outcome:  out,
		ReturnTo: survey.ReturnTarget(opts.ReturnTo, a.cfg.Survey.ReturnPages, a.cfg.Survey.FallbackPage),
	}
	return formatter(opts.RootOptions, cmd).Success(res, func(w io.Writer) {
		if out.RemoteSaved {
			fmt.Fprintln(w, "Survey sent. Thank you!")
		} else {
			fmt.Fprintln(w, "Survey saved on this device; run \"stampbook survey sync\" to send it later.")
		}
		fmt.Fprintf(w, "Return to: %s\n", res.ReturnTo)
	})
}

func runSurveySync(opts *SurveyOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	a, err := openApp(opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sent := a.surveys(opts.Identifier).SyncPending(cmd.Context())
	return formatter(opts.RootOptions, cmd).Success(map[string]bool{"sent": sent}, func(w io.Writer) {
		if sent {
			fmt.Fprintln(w, "Pending survey sent.")
		} else {
			fmt.Fprintln(w, "Nothing sent.")
		}
	})
}

func readAnswers(raw string) (map[string]any, error) {
	data := []byte(raw)
	if len(raw) > 0 && raw[0] == '@' {
		var err error
		data, err = os.ReadFile(raw[1:])
		if err != nil {
			return nil, err
		}
	}
	var answers map[string]any
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("answers must be a JSON object: %w", err)
	}
	return answers, nil
}
