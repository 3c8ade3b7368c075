package narration

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSpeaker struct {
	played  []string
	stopped int
}

func (s *recordingSpeaker) Play(clip string) { s.played = append(s.played, clip) }
func (s *recordingSpeaker) Stop()            { s.stopped++ }

type recordingBlocker struct{ calls []bool }

func (b *recordingBlocker) EnableMovement(enabled bool) { b.calls = append(b.calls, enabled) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue() (*Queue, *recordingSpeaker, *recordingBlocker) {
	sp := &recordingSpeaker{}
	bl := &recordingBlocker{}
	return NewQueue(sp, WithMovementBlocker(bl), WithLogger(discardLogger())), sp, bl
}

const step = 100 * time.Millisecond

func TestQueue_LineLifecycle(t *testing.T) {
	q, sp, bl := newTestQueue()
	q.Enqueue(Line{
		Clip:          "vo_intro",
		DelayBefore:   200 * time.Millisecond,
		Duration:      300 * time.Millisecond,
		DelayAfter:    100 * time.Millisecond,
		BlockMovement: true,
	})
	assert.False(t, q.IsIdle())

	q.Step(step) // starts, waiting 200ms
	assert.False(t, q.IsSpeaking())
	assert.Equal(t, 0, q.Len())

	q.Step(step) // 100ms left
	assert.Empty(t, sp.played)

	q.Step(step) // delay over, clip starts
	assert.True(t, q.IsSpeaking())
	assert.Equal(t, []string{"vo_intro"}, sp.played)
	assert.Equal(t, []bool{false}, bl.calls)

	q.Step(step)
	q.Step(step)
	assert.True(t, q.IsSpeaking())

	q.Step(step) // clip over
	assert.False(t, q.IsSpeaking())
	assert.Equal(t, []bool{false, true}, bl.calls)
	assert.False(t, q.IsIdle(), "still in delay after")

	q.Step(step)
	assert.True(t, q.IsIdle())
}

func TestQueue_NextLineStartsOnFollowingStep(t *testing.T) {
	q, sp, _ := newTestQueue()
	q.Enqueue(Line{Clip: "a", Duration: step})
	q.Enqueue(Line{Clip: "b", Duration: step})

	q.Step(step)
	assert.Equal(t, []string{"a"}, sp.played)
	assert.Equal(t, 1, q.Len())

	q.Step(step) // a finishes
	assert.Equal(t, []string{"a"}, sp.played)

	q.Step(step) // b starts
	assert.Equal(t, []string{"a", "b"}, sp.played)
}

func TestQueue_ZeroLengthLineCompletesInOneStep(t *testing.T) {
	q, sp, bl := newTestQueue()
	q.Enqueue(Line{Clip: "blip", BlockMovement: true})

	q.Step(step)

	assert.Equal(t, []string{"blip"}, sp.played)
	assert.Equal(t, []bool{false, true}, bl.calls)
	assert.True(t, q.IsIdle())
}

func TestQueue_IgnoresEmptyClip(t *testing.T) {
	q, _, _ := newTestQueue()
	assert.False(t, q.Enqueue(Line{Duration: time.Second}))
	assert.True(t, q.IsIdle())
}

func TestQueue_Clear(t *testing.T) {
	q, sp, bl := newTestQueue()
	q.Enqueue(Line{Clip: "long", Duration: 10 * time.Second, BlockMovement: true})
	q.Enqueue(Line{Clip: "next", Duration: time.Second})

	q.Step(step)
	assert.True(t, q.IsSpeaking())

	q.Clear()

	assert.Equal(t, 1, sp.stopped)
	assert.Equal(t, []bool{false, true}, bl.calls, "clear releases the movement block")
	assert.True(t, q.IsIdle())

	q.Step(step)
	assert.Equal(t, []string{"long"}, sp.played, "pending lines were dropped")
}

func TestQueue_NilSpeaker(t *testing.T) {
	q := NewQueue(nil, WithLogger(discardLogger()))
	q.Enqueue(Line{Clip: "x", Duration: step})

	q.Step(step)
	assert.True(t, q.IsSpeaking())
	q.Step(step)
	assert.True(t, q.IsIdle())
}
