package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const sessionColumns = `id, name, config, frame_x, frame_y, frame_z, frame_yaw, fingerprint, created_seq`

// ReadSession returns the session with the given ID.
// Returns an error wrapping ErrSessionNotFound if it does not exist.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every session in creation order.
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY created_seq ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recently created session.
func (s *Store) LatestSession(ctx context.Context) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY created_seq DESC
		LIMIT 1
	`)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("latest session: %w", ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

// ReadInputs returns a session's inputs ordered by seq.
func (s *Store) ReadInputs(ctx context.Context, sessionID string) ([]Input, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, x, y, z, object, ingredient, dt_ns
		FROM inputs
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	defer rows.Close()

	inputs := []Input{}
	for rows.Next() {
		var (
			in      Input
			kind    string
			x, y, z float64
			dt      int64
		)
		if err := rows.Scan(&in.Seq, &kind, &x, &y, &z, &in.Object, &in.Ingredient, &dt); err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
		in.Kind = InputKind(kind)
		in.Position = mgl64.Vec3{x, y, z}
		in.Dt = time.Duration(dt)
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return inputs, nil
}

// ReadOutputs returns a session's outputs ordered by seq.
func (s *Store) ReadOutputs(ctx context.Context, sessionID string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, kind, checkpoint, ingredient, object, reason
		FROM outputs
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read outputs: %w", err)
	}
	defer rows.Close()

	outputs := []Output{}
	for rows.Next() {
		var (
			out  Output
			tick int64
		)
		if err := rows.Scan(&out.Seq, &tick, &out.Kind, &out.Checkpoint, &out.Ingredient, &out.Object, &out.Reason); err != nil {
			return nil, fmt.Errorf("read outputs: %w", err)
		}
		out.Tick = uint64(tick)
		outputs = append(outputs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read outputs: %w", err)
	}
	return outputs, nil
}

// CountOutputs returns how many outputs of kind a session recorded.
func (s *Store) CountOutputs(ctx context.Context, sessionID, kind string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outputs WHERE session_id = ? AND kind = ?`,
		sessionID, kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outputs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		sess    Session
		x, y, z float64
	)
	err := row.Scan(
		&sess.ID,
		&sess.Name,
		&sess.Config,
		&x, &y, &z,
		&sess.Placement.Yaw,
		&sess.Fingerprint,
		&sess.CreatedSeq,
	)
	if err != nil {
		return Session{}, err
	}
	sess.Placement.Position = mgl64.Vec3{x, y, z}
	return sess, nil
}
