package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/store"
)

// streams returns a bare command wired to fresh stdout and stderr buffers.
func streams() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{Use: "brew"}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd, out, errOut
}

func TestNewFormatter_SplitsStreams(t *testing.T) {
	cmd, out, errOut := streams()
	f := newFormatter(&RootOptions{Format: "json", Verbose: true}, cmd)

	assert.True(t, f.JSON())
	f.VerboseLog("opening journal %s", "cauldron.db")
	require.NoError(t, f.Success(map[string]int{"sessions": 2}))

	assert.Equal(t, "opening journal cauldron.db\n", errOut.String())
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "stdout holds only the JSON document")
	assert.Equal(t, "ok", resp.Status)
}

func TestNewFormatter_QuietByDefault(t *testing.T) {
	cmd, out, errOut := streams()
	f := newFormatter(&RootOptions{Format: "text"}, cmd)

	assert.False(t, f.JSON())
	f.VerboseLog("not shown")
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestOutputFormatter_EncodeSession(t *testing.T) {
	tests := []struct {
		name    string
		resp    CLIResponse
		want    string
		without string
	}{
		{
			name: "journalled run",
			resp: CLIResponse{Status: "ok", Data: map[string]bool{"pass": true}, Session: "0192f1c4-7e2a"},
			want: "{\n  \"status\": \"ok\",\n  \"data\": {\n    \"pass\": true\n  },\n  \"session\": \"0192f1c4-7e2a\"\n}\n",
		},
		{
			name:    "no journal",
			resp:    CLIResponse{Status: "ok", Data: map[string]bool{"pass": true}},
			without: "session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			require.NoError(t, f.Encode(tt.resp))
			if tt.want != "" {
				assert.Equal(t, tt.want, buf.String())
			}
			if tt.without != "" {
				assert.NotContains(t, buf.String(), tt.without)
			}
		})
	}
}

func TestOutputFormatter_ErrorCodes(t *testing.T) {
	for _, code := range []string{
		ErrCodeGeneric,
		ErrCodeConfigInvalid,
		ErrCodeScenarioFailed,
		ErrCodeTestFailed,
		ErrCodeReplayMismatch,
	} {
		t.Run(code, func(t *testing.T) {
			jsonBuf, textBuf := &bytes.Buffer{}, &bytes.Buffer{}

			asJSON := &OutputFormatter{Format: "json", Writer: jsonBuf}
			require.NoError(t, asJSON.Error(code, "brew spoiled", map[string]int{"tick": 7}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, code, resp.Error.Code)
			assert.Equal(t, map[string]any{"tick": float64(7)}, resp.Error.Details)

			asText := &OutputFormatter{Format: "text", Writer: textBuf}
			require.NoError(t, asText.Error(code, "brew spoiled", map[string]int{"tick": 7}))
			assert.Equal(t, fmt.Sprintf("Error [%s]: brew spoiled\n", code), textBuf.String(),
				"details are only printed with --verbose")
		})
	}
}

func TestOutputFormatter_TextErrorDetailsWhenVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error(ErrCodeConfigInvalid, "clamp.radius: must be positive", "cauldron.cue:4:10"))
	assert.Equal(t, "Error [E_CONFIG_INVALID]: clamp.radius: must be positive\nDetails: cauldron.cue:4:10\n", buf.String())
}

func TestOutputFormatter_GetErrWriterFallsBack(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	assert.Same(t, buf, f.GetErrWriter())
	f.VerboseLog("tick %d", 3)
	assert.Equal(t, "tick 3\n", buf.String())
}

func TestCommands_ReportResultFailureCodes(t *testing.T) {
	failing := filepath.Join(t.TempDir(), "failing.yaml")
	require.NoError(t, os.WriteFile(failing, []byte(`name: failing
description: idles without brewing
steps:
  - idle: {ticks: 1}
assertions:
  - type: trace_contains
    event: potion_finished
`), 0o644))

	dbPath := filepath.Join(t.TempDir(), "cauldron.db")
	id := simulateToJournal(t, dbPath, wraparoundScenario)
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.SetFingerprint(context.Background(), id, "ffffffffffffffff"))
	require.NoError(t, st.Close())

	tests := []struct {
		name string
		run  func() (string, error)
		code string
	}{
		{"simulate", func() (string, error) { return executeSimulate(t, "json", failing) }, ErrCodeScenarioFailed},
		{"replay", func() (string, error) { return executeReplay(t, "json", "--db", dbPath, "--session", id) }, ErrCodeReplayMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := tt.run()
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(output), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"assertions failed", NewExitError(ExitFailure, "2 assertion(s) failed"), ExitFailure},
		{"wrapped divergence", fmt.Errorf("session s1: %w", NewExitError(ExitFailure, "diverged")), ExitFailure},
		{"missing journal", WrapExitError(ExitCommandError, "database not found", os.ErrNotExist), ExitCommandError},
		{"cobra usage error", errors.New(`unknown command "boil" for "cauldron"`), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwraps(t *testing.T) {
	err := WrapExitError(ExitCommandError, "database not found", os.ErrNotExist)

	assert.Equal(t, "database not found: "+os.ErrNotExist.Error(), err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, NewExitError(ExitFailure, "replay diverged").Unwrap())
}
