package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode is the sign of a pairwise force
type Mode float64

const (
	Attract Mode = 1
	Repulse Mode = -1
)

// Force parameterises one Pull evaluation
type Force struct {
	Mode      Mode
	Source    float64 // per-source scaling: mass, charge product, well radius
	Strength  float64 // configured strength for this kind of source
	Softening float64
	Cap       float64 // ceiling on |magnitude|, 0 disables
	Divisor   float64 // fixed acceleration divisor, 0 means use the target mass
	Dt        float64
	Immortal  int     // target immortality ticks; > 0 damps the pull
	Range     float64 // > 0 fades the magnitude linearly to zero at this distance
}

// Pull returns the velocity change the source at src imposes on a target at dst.
//
//	mag = Source * Mode * Strength / (d² * sqrt(d² + Softening))
//	dv  = d * (mag / divisor) * Dt / max(1, Immortal)
func Pull(src, dst mgl64.Vec2, targetMass float64, f Force) mgl64.Vec2 {
	d := src.Sub(dst)
	d2 := d.Dot(d)
	if d2 == 0 || !Finite(d) {
		return mgl64.Vec2{}
	}

	mag := f.Source * float64(f.Mode) * f.Strength / (d2 * math.Sqrt(d2+f.Softening))
	if f.Cap > 0 {
		mag = Clamp(mag, -f.Cap, f.Cap)
	}
	if f.Range > 0 {
		mag *= math.Max(0, 1-math.Sqrt(d2)/f.Range)
	}

	div := f.Divisor
	if div == 0 {
		div = targetMass
	}
	if div <= 0 {
		return mgl64.Vec2{}
	}
	a := mag / div

	damp := 1.0
	if f.Immortal > 1 {
		damp = float64(f.Immortal)
	}

	dv := d.Mul(a * f.Dt / damp)
	if !Finite(dv) {
		return mgl64.Vec2{}
	}
	return dv
}

// InCore reports whether dst lies within fraction*radius of src
func InCore(src mgl64.Vec2, radius float64, dst mgl64.Vec2, fraction float64) bool {
	d := src.Sub(dst)
	lim := fraction * radius
	return d.Dot(d) <= lim*lim
}
