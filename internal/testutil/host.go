package testutil

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/geom"
	"github.com/roach88/cauldron/internal/ingredient"
)

// StaticFrame is a frame source that never moves.
type StaticFrame struct {
	F geom.Frame
}

// Frame implements engine.FrameSource.
func (s StaticFrame) Frame() geom.Frame { return s.F }

// Stirrer is a host stirrer double. It remembers every position the engine
// wrote back so tests can see the clamp at work.
type Stirrer struct {
	mu     sync.Mutex
	pos    mgl64.Vec3
	writes []mgl64.Vec3
}

// NewStirrer returns a stirrer at p.
func NewStirrer(p mgl64.Vec3) *Stirrer {
	return &Stirrer{pos: p}
}

// Position implements engine.Stirrer.
func (s *Stirrer) Position() mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// SetPosition implements engine.Stirrer and records the write.
func (s *Stirrer) SetPosition(p mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = p
	s.writes = append(s.writes, p)
}

// MoveTo moves the stirrer as the host would, without recording a write.
func (s *Stirrer) MoveTo(p mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = p
}

// Writes returns the positions written back by the engine.
func (s *Stirrer) Writes() []mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mgl64.Vec3(nil), s.writes...)
}

// Remover records accepted ingredients instead of destroying them.
type Remover struct {
	mu      sync.Mutex
	removed []string
}

// Remove implements ingredient.Remover.
func (r *Remover) Remove(obj *ingredient.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, obj.ID)
}

// Removed returns the IDs of removed objects in removal order.
func (r *Remover) Removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}
