package testutil

// FixedSessionGenerator generates the same session ID every time.
//
// Journalling the same scenario with the same generator produces
// byte-identical sessions, which golden comparisons rely on.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session ID generator.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements store.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
