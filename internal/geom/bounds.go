package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is an axis-aligned box in whatever space its owner measures in;
// the ingredient gate uses the cauldron's local frame. Both corners are
// inclusive.
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewBounds builds a box from two opposite corners in any order.
func NewBounds(a, b mgl64.Vec3) Bounds {
	return Bounds{
		Min: mgl64.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])},
		Max: mgl64.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])},
	}
}

// Validate rejects inverted boxes and NaN corners.
func (b Bounds) Validate() error {
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Min[i]) || math.IsNaN(b.Max[i]) {
			return fmt.Errorf("corner %v / %v is not a number on axis %d", b.Min, b.Max, i)
		}
		if b.Min[i] > b.Max[i] {
			return fmt.Errorf("min %v exceeds max %v on axis %d", b.Min, b.Max, i)
		}
	}
	return nil
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
