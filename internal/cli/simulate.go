package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/harness"
	"github.com/roach88/cauldron/internal/store"
	"github.com/roach88/cauldron/internal/trace"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string // optional journal
}

// SimulateResult is the outcome of one simulated scenario.
type SimulateResult struct {
	Scenario    string           `json:"scenario"`
	Pass        bool             `json:"pass"`
	Events      []map[string]any `json:"events"`
	Spoken      []string         `json:"spoken"`
	Removed     []string         `json:"removed"`
	Fingerprint string           `json:"fingerprint"`
	Session     string           `json:"session,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Run a scenario and print the events it emits",
		Long: `Run one scenario file through a fresh engine and print every event
it emits, in order.

With --db the run is journalled as a new session (UUIDv7 ID) so it can
be inspected with "cauldron trace" and re-run with "cauldron replay".

Exit codes:
  0 - Scenario ran and its assertions passed
  1 - One or more assertions failed
  2 - Command error (scenario not found, invalid scenario, journal error)

Examples:
  cauldron simulate ./scenarios/full_brew.yaml
  cauldron simulate ./scenarios/full_brew.yaml --db ./cauldron.db
  cauldron simulate ./scenarios/full_brew.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite journal")

	return cmd
}

func runSimulate(ctx context.Context, opts *SimulateOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("scenario not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "scenario not found", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.Option{harness.WithLogger(opts.Logger())}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runOpts = append(runOpts, harness.WithJournal(st, store.UUIDv7Generator{}))
	}

	result, err := harness.RunContext(ctx, scenario, runOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	out := SimulateResult{
		Scenario:    scenario.Name,
		Pass:        result.Pass,
		Events:      make([]map[string]any, 0, len(result.Trace)),
		Spoken:      result.Spoken,
		Removed:     result.Removed,
		Fingerprint: result.Fingerprint,
		Session:     result.SessionID,
		Errors:      result.Errors,
	}
	for _, e := range result.Trace {
		out.Events = append(out.Events, trace.Record(e))
	}
	if out.Spoken == nil {
		out.Spoken = []string{}
	}
	if out.Removed == nil {
		out.Removed = []string{}
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: out, Session: out.Session}
		if !out.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenarioFailed,
				Message: fmt.Sprintf("%d assertion(s) failed", len(out.Errors)),
			}
		}
		if err := formatter.Encode(resp); err != nil {
			return err
		}
	} else {
		outputSimulateText(formatter, out, result)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s: %d assertion(s) failed", out.Scenario, len(out.Errors)))
	}
	return nil
}

func outputSimulateText(formatter *OutputFormatter, out SimulateResult, result *harness.Result) {
	w := formatter.Writer

	fmt.Fprintf(w, "Scenario: %s\n", out.Scenario)
	if out.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", out.Session)
	}
	fmt.Fprintln(w)

	for _, e := range result.Trace {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if len(out.Spoken) > 0 {
		fmt.Fprintf(w, "\nSpoken: %v\n", out.Spoken)
	}

	fmt.Fprintf(w, "\nFinal: tick=%d cw=%.1f ccw=%.1f next=%d added=%d/%d finished=%t\n",
		result.Final.Tick, result.Final.CW, result.Final.CCW,
		result.Final.NextCheckpoint, result.Final.Added, result.Final.Required,
		result.Final.Finished)
	fmt.Fprintf(w, "Fingerprint: %s\n", out.Fingerprint)

	if out.Pass {
		fmt.Fprintln(w, "PASS")
		return
	}
	fmt.Fprintln(w, "FAIL")
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
