package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cauldron/internal/harness"
	"github.com/roach88/cauldron/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - latest session when empty
	All      bool
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session     string `json:"session"`
	Name        string `json:"name"`
	Recorded    int    `json:"recorded_events"`
	Replayed    int    `json:"replayed_events"`
	Fingerprint string `json:"fingerprint"`
	Expected    string `json:"expected_fingerprint"`
	Divergence  int    `json:"divergence"`
	Match       bool   `json:"match"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions []ReplaySessionResult `json:"sessions"`
	Total    int                   `json:"total"`
	AllMatch bool                  `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run journalled sessions and compare their output",
		Long: `Re-run the inputs of journalled sessions through a fresh engine built
from each session's recorded config and frame placement, then compare
the emitted events with the recorded ones.

Without --session the most recent session is replayed; --all replays
every session in creation order.

Exit codes:
  0 - Every replayed session reproduced its recording
  1 - A replay diverged from its recording
  2 - Command error (database not found, unknown session, etc.)

Examples:
  cauldron replay --db ./cauldron.db
  cauldron replay --db ./cauldron.db --session 0190a5c4-...
  cauldron replay --db ./cauldron.db --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay this session only")
	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every session")
	cmd.MarkFlagsMutuallyExclusive("session", "all")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := replayTargets(ctx, st, opts)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		if formatter.JSON() {
			return formatter.Success(ReplayResult{Sessions: []ReplaySessionResult{}, AllMatch: true})
		}
		fmt.Fprintln(formatter.Writer, "No sessions found in database.")
		return nil
	}

	result := ReplayResult{
		Sessions: make([]ReplaySessionResult, 0, len(ids)),
		Total:    len(ids),
		AllMatch: true,
	}
	for _, id := range ids {
		formatter.VerboseLog("Replaying session %s", id)
		r, err := harness.Replay(ctx, st, id, opts.Logger())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}

		sr := ReplaySessionResult{
			Session:     r.Session.ID,
			Name:        r.Session.Name,
			Recorded:    len(r.Recorded),
			Replayed:    len(r.Replayed),
			Fingerprint: r.Fingerprint,
			Expected:    r.Session.Fingerprint,
			Divergence:  r.Divergence,
			Match:       r.Match(),
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Match {
			result.AllMatch = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// openJournal opens an existing journal. store.Open would create a missing
// file, which is never what a read-only command wants.
func openJournal(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func replayTargets(ctx context.Context, st *store.Store, opts *ReplayOptions) ([]string, error) {
	switch {
	case opts.Session != "":
		return []string{opts.Session}, nil
	case opts.All:
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		ids := make([]string, 0, len(sessions))
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
		return ids, nil
	}

	latest, err := st.LatestSession(ctx)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to find latest session", err)
	}
	return []string{latest.ID}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllMatch {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: "replay diverged from recording",
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay diverged from recording")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	for _, s := range result.Sessions {
		status := "MATCH"
		if !s.Match {
			status = "DIVERGED"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, s.Session, s.Name)
		fmt.Fprintf(w, "  events: %d recorded, %d replayed\n", s.Recorded, s.Replayed)
		fmt.Fprintf(w, "  fingerprint: %s (recorded %s)\n", s.Fingerprint, s.Expected)
		if s.Divergence >= 0 {
			fmt.Fprintf(w, "  first divergence at event %d\n", s.Divergence)
		}
	}

	fmt.Fprintln(w)
	if !result.AllMatch {
		fmt.Fprintf(w, "Replay diverged for one or more of %d session(s)\n", result.Total)
		return NewExitError(ExitFailure, "replay diverged from recording")
	}
	fmt.Fprintf(w, "All %d session(s) replayed identically\n", result.Total)
	return nil
}
