package store

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/trace"
)

func TestRecorder_JournalsInputsAndOutputs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	bus := event.NewBus()

	rec, err := s.Record(ctx, bus, Session{ID: "rec-1", Name: "recorded", Config: "name: recorded\n"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Session().CreatedSeq)

	rec.Input(Input{Seq: 99, Kind: InputEnter})
	bus.SetTick(1)
	bus.Publish(event.Event{Kind: event.StirZoneEntered})
	rec.Input(Input{Kind: InputTick, Position: mgl64.Vec3{0, 0.5, 0.3}})
	bus.SetTick(2)
	bus.Publish(event.Event{Kind: event.CheckpointReached, Checkpoint: 0})

	sess, err := rec.Close()
	require.NoError(t, err)
	assert.Equal(t, 0, bus.Len(), "Close unsubscribes")

	inputs, err := s.ReadInputs(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, int64(1), inputs[0].Seq, "recorder assigns seq")
	assert.Equal(t, int64(2), inputs[1].Seq)

	outputs, err := s.ReadOutputs(ctx, "rec-1")
	require.NoError(t, err)
	events, err := Events(outputs)
	require.NoError(t, err)
	assert.Equal(t, rec.Events(), events)

	fp, err := trace.Fingerprint(events)
	require.NoError(t, err)
	assert.Equal(t, trace.FormatFingerprint(fp), sess.Fingerprint)

	stored, err := s.ReadSession(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Fingerprint, stored.Fingerprint)
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	bus := event.NewBus()

	rec, err := s.Record(context.Background(), bus, Session{ID: "rec-1"})
	require.NoError(t, err)

	first, err := rec.Close()
	require.NoError(t, err)
	second, err := rec.Close()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rec.Input(Input{Kind: InputEnter})
	inputs, err := s.ReadInputs(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Empty(t, inputs, "inputs after Close are dropped")
}

func TestRecorder_KeepsFirstWriteError(t *testing.T) {
	s := createTestStore(t)
	bus := event.NewBus()

	rec, err := s.Record(context.Background(), bus, Session{ID: "rec-1"})
	require.NoError(t, err)

	rec.Input(Input{Kind: "teleport"})
	rec.Input(Input{Kind: InputEnter})

	require.Error(t, rec.Err())
	assert.Contains(t, rec.Err().Error(), "teleport")

	_, err = rec.Close()
	assert.Error(t, err)
}
