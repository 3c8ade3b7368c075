package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ClampConfig bounds the stirrer to a vertical cylinder around a frame's Y
// axis. It is immutable once an engine has been built from it.
type ClampConfig struct {
	Radius    float64
	MinHeight float64
	MaxHeight float64
}

// Validate reports a malformed clamp. Callers treat the error as fatal.
func (c ClampConfig) Validate() error {
	if !(c.Radius > 0) {
		return fmt.Errorf("radius must be positive, got %v", c.Radius)
	}
	if c.MinHeight > c.MaxHeight {
		return fmt.Errorf("min height %v is above max height %v", c.MinHeight, c.MaxHeight)
	}
	return nil
}

// Contains reports whether a frame-local point lies inside the cylinder.
func (c ClampConfig) Contains(local mgl64.Vec3) bool {
	if local.Y() < c.MinHeight || local.Y() > c.MaxHeight {
		return false
	}
	return horizontal(local).Len() <= c.Radius
}

// Clamp projects point into the cylinder described by cfg relative to frame.
//
// The horizontal (XZ) component is rescaled to exactly cfg.Radius when it
// exceeds it, keeping its direction; a zero horizontal vector stays zero. The
// height is clamped into [MinHeight, MaxHeight]. Points already inside are
// returned unchanged, so Clamp is idempotent.
func Clamp(point mgl64.Vec3, frame Frame, cfg ClampConfig) mgl64.Vec3 {
	local := frame.ToLocal(point)
	if cfg.Contains(local) {
		return point
	}

	h := horizontal(local)
	if r := h.Len(); r > cfg.Radius {
		h = h.Mul(cfg.Radius / r)
	}
	y := mgl64.Clamp(local.Y(), cfg.MinHeight, cfg.MaxHeight)

	return frame.ToWorld(mgl64.Vec3{h.X(), y, h.Y()})
}

func horizontal(local mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{local.X(), local.Z()}
}
