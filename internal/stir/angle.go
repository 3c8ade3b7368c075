// Package stir integrates the stirrer's angular motion around a frame's
// vertical axis into clockwise and counter-clockwise totals.
package stir

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/geom"
)

// Bearing returns the horizontal angle of point around frame's Y axis, in
// degrees within (-180, 180]. Zero is the frame's forward (+Z) axis and the
// angle grows towards +X.
func Bearing(point mgl64.Vec3, frame geom.Frame) float64 {
	local := frame.ToLocal(point)
	return normalize(mgl64.RadToDeg(math.Atan2(local.X(), local.Z())))
}

// DeltaAngle returns the shortest signed difference from -> to in degrees,
// within (-180, 180]. -179 -> 179 yields -2, not 358.
func DeltaAngle(from, to float64) float64 {
	return normalize(math.Mod(to-from, 360))
}

// Sample measures the current bearing of point and its shortest-path
// difference from previous.
func Sample(point mgl64.Vec3, frame geom.Frame, previous float64) (angle, delta float64) {
	angle = Bearing(point, frame)
	return angle, DeltaAngle(previous, angle)
}

// normalize folds an angle in (-360, 360) into (-180, 180].
func normalize(deg float64) float64 {
	switch {
	case deg <= -180:
		return deg + 360
	case deg > 180:
		return deg - 360
	}
	return deg
}
