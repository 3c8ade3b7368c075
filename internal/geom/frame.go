// Package geom holds the rigid-frame geometry shared by the stirring core:
// reference frames, the cylindrical stir clamp and axis-aligned acceptance
// volumes.
//
// All math is float64 on top of mgl64. Frames are right-handed with +Y up,
// which is the convention the bearing and handedness code in package stir is
// written against.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the vertical axis of every frame.
var Up = mgl64.Vec3{0, 1, 0}

// Frame is an oriented origin (position + rotation) defining local
// coordinates for clamping and angle measurement. Frames are rigid: there is
// no scale component.
type Frame struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// IdentityFrame returns a frame at the world origin with no rotation.
func IdentityFrame() Frame {
	return Frame{Rotation: mgl64.QuatIdent()}
}

// NewFrame returns a frame at position, rotated yawDeg degrees about +Y.
func NewFrame(position mgl64.Vec3, yawDeg float64) Frame {
	return Frame{
		Position: position,
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(yawDeg), Up),
	}
}

// rotation returns the normalised frame rotation. A zero-value quaternion
// is treated as identity so that a Frame{} literal is usable.
func (f Frame) rotation() mgl64.Quat {
	if f.Rotation.W == 0 && f.Rotation.V.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return f.Rotation.Normalize()
}

// ToLocal transforms a world-space point into the frame's local space.
func (f Frame) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return f.rotation().Inverse().Rotate(p.Sub(f.Position))
}

// ToWorld transforms a frame-local point back into world space.
func (f Frame) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return f.rotation().Rotate(local).Add(f.Position)
}

// PointOnBearing returns the world position at the given bearing (degrees,
// measured from the frame's forward +Z axis towards +X), horizontal radius
// and local height.
func (f Frame) PointOnBearing(bearingDeg, radius, height float64) mgl64.Vec3 {
	rad := mgl64.DegToRad(bearingDeg)
	local := mgl64.Vec3{radius * math.Sin(rad), height, radius * math.Cos(rad)}
	return f.ToWorld(local)
}

// Placement is the serialisable form of a yaw-only frame, used by scenarios
// and the session journal.
type Placement struct {
	Position mgl64.Vec3
	Yaw      float64
}

// Frame builds the frame the placement describes.
func (p Placement) Frame() Frame {
	return NewFrame(p.Position, p.Yaw)
}
