package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/geom"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession inserts a session with minimal required fields.
func createTestSession(t *testing.T, s *Store, id string) Session {
	t.Helper()
	sess, err := s.CreateSession(context.Background(), Session{
		ID:     id,
		Name:   "test-" + id,
		Config: "name: test\n",
		Placement: geom.Placement{
			Position: mgl64.Vec3{1, 0, -2},
			Yaw:      45,
		},
	})
	if err != nil {
		t.Fatalf("CreateSession(%q) failed: %v", id, err)
	}
	return sess
}
