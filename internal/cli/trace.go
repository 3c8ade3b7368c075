package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/store"
	"github.com/roach88/cauldron/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Kind     string // optional - filter to one event kind
	Inputs   bool   // also print the recorded inputs
}

// TraceEvent is one journalled output in the timeline.
type TraceEvent struct {
	ID     string         `json:"id"`
	Record map[string]any `json:"event"`
}

// TraceInput is one journalled input.
type TraceInput struct {
	Seq        int64      `json:"seq"`
	Kind       string     `json:"kind"`
	Position   [3]float64 `json:"position"`
	Object     string     `json:"object,omitempty"`
	Ingredient string     `json:"ingredient,omitempty"`
	DtMS       float64    `json:"dt_ms,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session     string       `json:"session"`
	Name        string       `json:"name"`
	Fingerprint string       `json:"fingerprint"`
	Timeline    []TraceEvent `json:"timeline"`
	Inputs      []TraceInput `json:"inputs,omitempty"`
	Stats       TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the session.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	TotalInputs int            `json:"total_inputs"`
	ByKind      map[string]int `json:"by_kind"`
	Finished    bool           `json:"finished"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the journalled events of a session",
		Long: `Print the events a journalled session emitted, in order.

Each event is shown with its content-addressed ID (SHA-256 over the
event's canonical JSON), so traces from different runs can be compared
event by event.

Examples:
  cauldron trace --db ./cauldron.db --session 0190a5c4-...
  cauldron trace --db ./cauldron.db --session 0190a5c4-... --kind checkpoint_reached
  cauldron trace --db ./cauldron.db --session 0190a5c4-... --inputs --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")
	cmd.Flags().BoolVar(&opts.Inputs, "inputs", false, "include recorded inputs")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Kind != "" {
		if _, err := event.ParseKind(opts.Kind); err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.ReadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	outputs, err := st.ReadOutputs(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outputs", err)
	}
	events, err := store.Events(outputs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode outputs", err)
	}

	result := TraceResult{
		Session:     sess.ID,
		Name:        sess.Name,
		Fingerprint: sess.Fingerprint,
		Timeline:    []TraceEvent{},
		Stats: TraceStats{
			TotalEvents: len(events),
			ByKind:      make(map[string]int, len(event.Kinds)),
		},
	}
	for _, k := range event.Kinds {
		result.Stats.ByKind[k.String()] = 0
	}

	for _, e := range events {
		result.Stats.ByKind[e.Kind.String()]++
		if e.Kind == event.PotionFinished {
			result.Stats.Finished = true
		}
		if opts.Kind != "" && e.Kind.String() != opts.Kind {
			continue
		}
		id, err := trace.EventID(e)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to hash event", err)
		}
		result.Timeline = append(result.Timeline, TraceEvent{ID: id, Record: trace.Record(e)})
	}

	inputs, err := st.ReadInputs(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read inputs", err)
	}
	result.Stats.TotalInputs = len(inputs)
	if opts.Inputs {
		result.Inputs = make([]TraceInput, 0, len(inputs))
		for _, in := range inputs {
			result.Inputs = append(result.Inputs, TraceInput{
				Seq:        in.Seq,
				Kind:       string(in.Kind),
				Position:   [3]float64(in.Position),
				Object:     in.Object,
				Ingredient: in.Ingredient,
				DtMS:       float64(in.Dt.Microseconds()) / 1000,
			})
		}
	}

	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: result, Session: sess.ID})
	}
	outputTraceText(formatter.Writer, result, opts.Verbose)
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Session: %s (%s)\n", result.Session, result.Name)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintln(w)

	if result.Inputs != nil {
		fmt.Fprintln(w, "=== Inputs ===")
		for _, in := range result.Inputs {
			fmt.Fprintf(w, "  [%d] %-10s (%.3f, %.3f, %.3f)", in.Seq, in.Kind,
				in.Position[0], in.Position[1], in.Position[2])
			if in.Object != "" {
				fmt.Fprintf(w, " %s:%s", in.Object, in.Ingredient)
			}
			if in.DtMS > 0 {
				fmt.Fprintf(w, " dt=%gms", in.DtMS)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  [%v] t%v %s%s\n", e.Record["seq"], e.Record["tick"], e.Record["kind"], formatDetails(e.Record))
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(e.ID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Total Inputs: %d\n", result.Stats.TotalInputs)
	for _, k := range event.Kinds {
		fmt.Fprintf(w, "  %-20s %d\n", k.String()+":", result.Stats.ByKind[k.String()])
	}
	fmt.Fprintf(w, "  Finished: %t\n", result.Stats.Finished)
}

// formatDetails renders the kind-specific fields of a record.
func formatDetails(rec map[string]any) string {
	var s string
	for _, key := range []string{"checkpoint", "ingredient", "object", "reason"} {
		if v, ok := rec[key]; ok {
			s += fmt.Sprintf(" %s=%v", key, v)
		}
	}
	return s
}

// truncateID truncates an ID for display.
func truncateID(id string) string {
	if len(id) > 16 {
		return id[:16] + "..."
	}
	return id
}
