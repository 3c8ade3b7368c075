package store

import (
	"context"
	"fmt"

	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/trace"
)

// Recorder journals one live session: every event published on its bus
// becomes an output, and the driver reports inputs through Input.
//
// Write failures do not interrupt the engine. The first one is kept and
// returned by Err and Close.
type Recorder struct {
	ctx     context.Context
	store   *Store
	bus     *event.Bus
	sub     event.SubscriptionID
	session Session

	seq    int64
	events []event.Event
	err    error
	closed bool
}

// Record creates sess and starts journalling events published on bus.
func (s *Store) Record(ctx context.Context, bus *event.Bus, sess Session) (*Recorder, error) {
	created, err := s.CreateSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		ctx:     ctx,
		store:   s,
		bus:     bus,
		session: created,
	}
	r.sub = bus.SubscribeAll(r.output)
	return r, nil
}

// Session returns the session being recorded.
func (r *Recorder) Session() Session { return r.session }

// Input journals in with the next input seq. Seq on in is ignored.
func (r *Recorder) Input(in Input) {
	if r.closed {
		return
	}
	r.seq++
	in.Seq = r.seq
	if err := r.store.WriteInput(r.ctx, r.session.ID, in); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) output(e event.Event) {
	r.events = append(r.events, e)
	if err := r.store.WriteOutput(r.ctx, r.session.ID, OutputFromEvent(e)); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("session %s: %w", r.session.ID, err)
	}
}

// Err returns the first write failure.
func (r *Recorder) Err() error { return r.err }

// Events returns the events recorded so far.
func (r *Recorder) Events() []event.Event { return r.events }

// Close stops recording and stores the fingerprint of the recorded events.
// Close is idempotent.
func (r *Recorder) Close() (Session, error) {
	if r.closed {
		return r.session, r.err
	}
	r.closed = true
	r.bus.Unsubscribe(r.sub)

	fp, err := trace.Fingerprint(r.events)
	if err != nil {
		r.fail(err)
		return r.session, r.err
	}
	r.session.Fingerprint = trace.FormatFingerprint(fp)
	if err := r.store.SetFingerprint(r.ctx, r.session.ID, r.session.Fingerprint); err != nil {
		r.fail(err)
	}
	return r.session, r.err
}
