package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionIDGenerator produces session IDs.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns a predetermined sequence of IDs. For tests.
type FixedGenerator struct {
	mu    sync.Mutex
	ids   []string
	index int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next ID. Panics when the sequence is exhausted.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.index >= len(g.ids) {
		panic(fmt.Sprintf("FixedGenerator: exhausted after %d IDs", len(g.ids)))
	}
	id := g.ids[g.index]
	g.index++
	return id
}
