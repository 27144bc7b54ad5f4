package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Reposition selects which body is pushed out of an overlap
type Reposition uint8

const (
	RepositionThis Reposition = iota
	RepositionOther
	RepositionBoth
)

// Overlaps reports whether two discs touch
func Overlaps(a, b *Kinetic) bool {
	d := b.Pos.Sub(a.Pos)
	r := a.Radius + b.Radius
	return d.Dot(d) <= r*r
}

// Collide separates two overlapping discs and exchanges an impulse along the
// contact normal. Returns the closing speed as impact and whether the bodies
// were in contact at all. Coincident centres are left untouched.
func Collide(a, b *Kinetic, mode Reposition, restitution float64) (float64, bool) {
	if !Overlaps(a, b) {
		return 0, false
	}
	n, dist := unit(b.Pos.Sub(a.Pos))
	if dist == 0 {
		return 0, true
	}

	overlap := a.Radius + b.Radius - dist
	switch mode {
	case RepositionThis:
		a.Pos = a.Pos.Sub(n.Mul(overlap))
	case RepositionOther:
		b.Pos = b.Pos.Add(n.Mul(overlap))
	case RepositionBoth:
		a.Pos = a.Pos.Sub(n.Mul(overlap / 2))
		b.Pos = b.Pos.Add(n.Mul(overlap / 2))
	}

	closing := a.Vel.Sub(b.Vel).Dot(n)
	if closing <= 0 {
		return 0, true
	}
	total := a.Mass + b.Mass
	if total <= 0 {
		return 0, true
	}

	j := (1 + restitution) / 2 * 2 * closing / total
	a.Vel = a.Vel.Sub(n.Mul(j * b.Mass))
	b.Vel = b.Vel.Add(n.Mul(j * a.Mass))
	return closing, true
}

// InsideRect reports whether the disc overlaps the axis-aligned box
func InsideRect(k *Kinetic, center, size mgl64.Vec2) bool {
	hw, hh := size[0]/2, size[1]/2
	cx := Clamp(k.Pos[0], center[0]-hw, center[0]+hw)
	cy := Clamp(k.Pos[1], center[1]-hh, center[1]+hh)
	dx, dy := k.Pos[0]-cx, k.Pos[1]-cy
	return dx*dx+dy*dy <= k.Radius*k.Radius
}

// ReflectRect pushes a disc out of a solid box through the face it crossed.
// The face is the axis with the larger size-scaled offset from the centre.
func ReflectRect(k *Kinetic, center, size mgl64.Vec2, restitution float64) (float64, bool) {
	if !InsideRect(k, center, size) {
		return 0, false
	}
	hw, hh := size[0]/2, size[1]/2
	off := k.Pos.Sub(center)
	if hw <= 0 || hh <= 0 {
		return 0, false
	}

	if math.Abs(off[0])/hw >= math.Abs(off[1])/hh {
		side := 1.0
		if off[0] < 0 {
			side = -1
		}
		k.Pos[0] = center[0] + side*(hw+k.Radius)
		return reflectAxis(&k.Vel[0], side, restitution), true
	}
	side := 1.0
	if off[1] < 0 {
		side = -1
	}
	k.Pos[1] = center[1] + side*(hh+k.Radius)
	return reflectAxis(&k.Vel[1], side, restitution), true
}

// reflectAxis flips a velocity component that points into a face whose
// outward normal has sign side. Returns the incoming speed.
func reflectAxis(v *float64, side, restitution float64) float64 {
	if *v*side >= 0 {
		return 0
	}
	impact := math.Abs(*v)
	*v = side * impact * restitution
	return impact
}

// ReflectCircle pushes a disc out of a solid circle and reflects the normal velocity
func ReflectCircle(k *Kinetic, center mgl64.Vec2, radius, restitution float64) (float64, bool) {
	n, dist := unit(k.Pos.Sub(center))
	reach := radius + k.Radius
	if dist >= reach {
		return 0, false
	}
	if dist == 0 {
		return 0, true
	}
	k.Pos = center.Add(n.Mul(reach))

	vn := k.Vel.Dot(n)
	if vn >= 0 {
		return 0, true
	}
	k.Vel = k.Vel.Sub(n.Mul((1 + restitution) * vn))
	return -vn, true
}

// ReflectEdges keeps a disc inside [0,width]x[0,height].
// Returns the summed speed of the components that were reflected.
func ReflectEdges(k *Kinetic, width, height, restitution float64) (float64, bool) {
	var impact float64
	hit := false
	r := k.Radius

	if k.Pos[0]-r < 0 {
		k.Pos[0] = r
		impact += reflectAxis(&k.Vel[0], 1, restitution)
		hit = true
	} else if k.Pos[0]+r > width {
		k.Pos[0] = width - r
		impact += reflectAxis(&k.Vel[0], -1, restitution)
		hit = true
	}

	if k.Pos[1]-r < 0 {
		k.Pos[1] = r
		impact += reflectAxis(&k.Vel[1], 1, restitution)
		hit = true
	} else if k.Pos[1]+r > height {
		k.Pos[1] = height - r
		impact += reflectAxis(&k.Vel[1], -1, restitution)
		hit = true
	}
	return impact, hit
}

// Wrap folds a position back into the torus [0,width)x[0,height)
func Wrap(k *Kinetic, width, height float64) {
	if width > 0 {
		k.Pos[0] = math.Mod(math.Mod(k.Pos[0], width)+width, width)
	}
	if height > 0 {
		k.Pos[1] = math.Mod(math.Mod(k.Pos[1], height)+height, height)
	}
}
