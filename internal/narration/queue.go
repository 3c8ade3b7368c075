// Package narration plays voice lines in response to stirring events.
//
// A Queue runs one Line at a time and is advanced explicitly by Step, once
// per engine tick. A Narrator subscribes to an event.Bus and enqueues the
// configured lines for the events it sees.
package narration

import (
	"log/slog"
	"time"
)

// Line is a single voice line.
type Line struct {
	Clip          string
	Duration      time.Duration
	DelayBefore   time.Duration
	DelayAfter    time.Duration
	BlockMovement bool
}

// Speaker plays clips. Play starts a clip and returns immediately; Stop cuts
// off whatever is playing.
type Speaker interface {
	Play(clip string)
	Stop()
}

// MovementBlocker freezes player locomotion while a blocking line plays.
type MovementBlocker interface {
	EnableMovement(enabled bool)
}

type phase int

const (
	phaseDelayBefore phase = iota
	phaseSpeaking
	phaseDelayAfter
	phaseDone
)

// lineTask is a Line in progress.
type lineTask struct {
	line      Line
	phase     phase
	remaining time.Duration
	blocked   bool
}

// Queue is a FIFO of voice lines.
//
// Each line runs through: wait DelayBefore, block movement (if requested) and
// start the clip, wait Duration, unblock, wait DelayAfter. The next line
// starts on the Step after the previous one finishes.
//
// Not safe for concurrent use.
type Queue struct {
	speaker Speaker
	blocker MovementBlocker
	logger  *slog.Logger

	pending  []Line
	current  *lineTask
	speaking bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithMovementBlocker sets the blocker used by lines with BlockMovement.
func WithMovementBlocker(b MovementBlocker) QueueOption {
	return func(q *Queue) { q.blocker = b }
}

// WithLogger sets the queue logger. Default: slog.Default().
func WithLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) { q.logger = l }
}

// NewQueue returns an empty queue playing through speaker.
func NewQueue(speaker Speaker, opts ...QueueOption) *Queue {
	q := &Queue{speaker: speaker, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends l. Lines without a clip are ignored.
func (q *Queue) Enqueue(l Line) bool {
	if l.Clip == "" {
		return false
	}
	q.pending = append(q.pending, l)
	return true
}

// Step advances the current line by dt, starting the next pending line if
// nothing is running.
//
// A wait that starts during a Step is first decremented on the following
// Step, so a line never skips ahead within the frame it started in.
func (q *Queue) Step(dt time.Duration) {
	if q.current == nil {
		if len(q.pending) == 0 {
			return
		}
		q.current = &lineTask{line: q.pending[0], remaining: q.pending[0].DelayBefore}
		q.pending[0] = Line{}
		q.pending = q.pending[1:]
	} else {
		q.current.remaining -= dt
	}

	for q.current.remaining <= 0 {
		q.advance(q.current)
		if q.current.phase == phaseDone {
			q.current = nil
			return
		}
	}
}

func (q *Queue) advance(t *lineTask) {
	switch t.phase {
	case phaseDelayBefore:
		if t.line.BlockMovement && q.blocker != nil {
			q.blocker.EnableMovement(false)
			t.blocked = true
		}
		q.speaking = true
		if q.speaker != nil {
			q.speaker.Play(t.line.Clip)
		}
		q.logger.Debug("voice line started", "clip", t.line.Clip, "duration", t.line.Duration)
		t.phase, t.remaining = phaseSpeaking, t.line.Duration

	case phaseSpeaking:
		q.speaking = false
		if t.blocked {
			q.blocker.EnableMovement(true)
			t.blocked = false
		}
		t.phase, t.remaining = phaseDelayAfter, t.line.DelayAfter

	case phaseDelayAfter:
		t.phase = phaseDone
	}
}

// IsSpeaking reports whether a clip is currently playing.
func (q *Queue) IsSpeaking() bool { return q.speaking }

// IsIdle reports whether nothing is playing, waiting or pending.
func (q *Queue) IsIdle() bool {
	return !q.speaking && q.current == nil && len(q.pending) == 0
}

// Len returns the number of lines not yet started.
func (q *Queue) Len() int { return len(q.pending) }

// Clear stops the current clip, releases any movement block and drops every
// pending line.
func (q *Queue) Clear() {
	if q.speaking && q.speaker != nil {
		q.speaker.Stop()
	}
	if q.current != nil && q.current.blocked {
		q.blocker.EnableMovement(true)
	}
	q.speaking = false
	q.current = nil
	clear(q.pending)
	q.pending = q.pending[:0]
}
