package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

type traceResponse struct {
	Status  string      `json:"status"`
	Data    TraceResult `json:"data"`
	Session string      `json:"session"`
}

func TestTraceText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cauldron.db")
	id := simulateToJournal(t, dbPath, fullBrewScenario)

	output, err := executeTrace(t, "text", "--db", dbPath, "--session", id)
	require.NoError(t, err)

	assert.Contains(t, output, "Trace for Session: "+id+" (full_brew)")
	assert.Contains(t, output, "[1] t1 ingredient_added ingredient=dried_worm")
	assert.Contains(t, output, "reason=already_processed")
	assert.Contains(t, output, "Total Events: 12")
	assert.Contains(t, output, "Finished: true")
	assert.NotContains(t, output, "=== Inputs ===")
}

func TestTraceJSONWithInputs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cauldron.db")
	id := simulateToJournal(t, dbPath, fullBrewScenario)

	output, err := executeTrace(t, "json", "--db", dbPath, "--session", id, "--inputs")
	require.NoError(t, err)

	var resp traceResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, id, resp.Session)
	assert.Len(t, resp.Data.Timeline, 12)
	assert.Len(t, resp.Data.Fingerprint, 16)
	assert.Equal(t, 3, resp.Data.Stats.ByKind["checkpoint_reached"])
	assert.Equal(t, 1, resp.Data.Stats.ByKind["potion_finished"])
	assert.Equal(t, resp.Data.Stats.TotalInputs, len(resp.Data.Inputs))
	assert.NotEmpty(t, resp.Data.Inputs)

	for _, e := range resp.Data.Timeline {
		assert.Len(t, e.ID, 64, "event IDs are hex SHA-256")
	}
}

func TestTraceKindFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cauldron.db")
	id := simulateToJournal(t, dbPath, fullBrewScenario)

	output, err := executeTrace(t, "json", "--db", dbPath, "--session", id, "--kind", "checkpoint_reached")
	require.NoError(t, err)

	var resp traceResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Len(t, resp.Data.Timeline, 3)
	for i, e := range resp.Data.Timeline {
		assert.Equal(t, "checkpoint_reached", e.Record["kind"])
		assert.EqualValues(t, i, e.Record["checkpoint"])
	}
	assert.Equal(t, 12, resp.Data.Stats.TotalEvents, "stats ignore the filter")
}

func TestTraceInvalidKind(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", emptyJournal(t), "--session", "s", "--kind", "bubbling")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceUnknownSession(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", emptyJournal(t), "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceRequiresFlags(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0123456789abcdef...", truncateID("0123456789abcdef0123"))
}
