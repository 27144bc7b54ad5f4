// Package physics holds the force law and collision math shared by every body kind.
// Functions are pure over Kinetic values; degenerate geometry yields zero results.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kinetic is the physical state of a circular body
type Kinetic struct {
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Mass   float64
	Radius float64
}

// Speed returns the velocity magnitude
func (k *Kinetic) Speed() float64 {
	return k.Vel.Len()
}

// Finite reports whether both components are finite numbers
func Finite(v mgl64.Vec2) bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) && !math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

// unit returns v normalised and its length. Zero or non-finite input gives a zero vector.
func unit(v mgl64.Vec2) (mgl64.Vec2, float64) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec2{}, 0
	}
	return v.Mul(1 / l), l
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
