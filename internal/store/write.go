package store

import (
	"context"
	"fmt"
)

// CreateSession inserts s and returns it with CreatedSeq assigned.
//
// Unlike inputs and outputs, sessions are not idempotent: reusing an ID is
// an error because the second run would interleave with the first.
func (s *Store) CreateSession(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		return Session{}, fmt.Errorf("create session: empty id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, name, config, frame_x, frame_y, frame_z, frame_yaw, fingerprint, created_seq)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(created_seq), 0) + 1 FROM sessions
	`,
		sess.ID,
		sess.Name,
		sess.Config,
		sess.Placement.Position.X(),
		sess.Placement.Position.Y(),
		sess.Placement.Position.Z(),
		sess.Placement.Yaw,
		sess.Fingerprint,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session %s: %w", sess.ID, err)
	}

	return s.ReadSession(ctx, sess.ID)
}

// SetFingerprint records the output fingerprint of a finished session.
func (s *Store) SetFingerprint(ctx context.Context, sessionID, fingerprint string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET fingerprint = ? WHERE id = ?`,
		fingerprint, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set fingerprint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set fingerprint: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set fingerprint %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// WriteInput appends an input to a session.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting a seq is ignored.
// The session must exist (foreign key constraint).
func (s *Store) WriteInput(ctx context.Context, sessionID string, in Input) error {
	if err := in.Kind.Validate(); err != nil {
		return fmt.Errorf("write input: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inputs
		(session_id, seq, kind, x, y, z, object, ingredient, dt_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		in.Seq,
		string(in.Kind),
		in.Position.X(),
		in.Position.Y(),
		in.Position.Z(),
		in.Object,
		in.Ingredient,
		in.Dt.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("write input: %w", err)
	}

	return nil
}

// WriteOutput appends a published event to a session.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting a seq is ignored.
// The session must exist (foreign key constraint).
func (s *Store) WriteOutput(ctx context.Context, sessionID string, out Output) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outputs
		(session_id, seq, tick, kind, checkpoint, ingredient, object, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		out.Seq,
		int64(out.Tick),
		out.Kind,
		out.Checkpoint,
		out.Ingredient,
		out.Object,
		out.Reason,
	)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
