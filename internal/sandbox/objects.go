package sandbox

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/physics"
)

var (
	wellAttractColor = color.RGBA{70, 130, 255, 255}
	wellRepelColor   = color.RGBA{255, 120, 60, 255}
	objectColors     = [objectKindCount]color.RGBA{
		Rectangle:   {150, 150, 160, 255},
		Circle:      {150, 150, 160, 255},
		GravityWell: wellAttractColor,
		BlackHole:   {10, 0, 20, 255},
		Accelerator: {60, 220, 120, 255},
		Decelerator: {220, 60, 90, 255},
		FlowControl: {120, 200, 255, 255},
	}
)

// flowSegment is one directed piece of a flow chain
type flowSegment struct {
	mid   mgl64.Vec2
	dir   mgl64.Vec2 // unit tangent
	angle float64
	half  float64 // half side of the square influence region
}

// Object is an environment body. Kind selects which shape fields matter.
type Object struct {
	id     uint64
	Kind   ObjectKind
	Pos    mgl64.Vec2
	Size   mgl64.Vec2 // rectangle and zones
	Radius float64    // circle, well, black hole
	Sign   int        // gravity well: +1 attract, -1 repel
	Points []mgl64.Vec2
	Color  color.RGBA

	segments []flowSegment
	settings *Settings
	removed  bool
}

// ID implements grid.Item
func (o *Object) ID() uint64 { return o.id }

// Position implements grid.Item
func (o *Object) Position() mgl64.Vec2 { return o.Pos }

func newObject(id uint64, kind ObjectKind, pos mgl64.Vec2, s *Settings) (*Object, error) {
	switch {
	case id == 0:
		return nil, &ConstructionError{Body: "object", Field: "id", Reason: "is missing"}
	case s == nil:
		return nil, &ConstructionError{Body: "object", Field: "settings", Reason: "is missing"}
	case !physics.Finite(pos):
		return nil, &ConstructionError{Body: "object", Field: "position", Reason: "is not finite"}
	case kind >= objectKindCount:
		return nil, &ConstructionError{Body: "object", Field: "kind", Reason: kind.String()}
	}
	return &Object{
		id:       id,
		Kind:     kind,
		Pos:      pos,
		Sign:     1,
		Color:    objectColors[kind],
		settings: s,
	}, nil
}

// reach is the radius around Pos inside which particles can be affected
func (o *Object) reach() float64 {
	c := o.settings.Const
	switch o.Kind {
	case Rectangle, Accelerator, Decelerator:
		return o.Size.Len()/2 + c.MaxRadius
	case Circle:
		return o.Radius + c.MaxRadius
	case GravityWell:
		return math.Max(c.WellReach, o.Radius)
	case BlackHole:
		return o.Radius
	case FlowControl:
		r := 0.0
		for _, p := range o.Points {
			r = math.Max(r, p.Sub(o.Pos).Len()+c.FlowWidth)
		}
		// segment squares reach their corners at half*sqrt2 from the midpoint
		for _, seg := range o.segments {
			r = math.Max(r, seg.mid.Sub(o.Pos).Len()+seg.half*math.Sqrt2)
		}
		return r + c.MaxRadius
	}
	return 0
}

// Contains hit-tests a point against the object's shape
func (o *Object) Contains(p mgl64.Vec2) bool {
	switch o.Kind {
	case Rectangle, Accelerator, Decelerator:
		d := p.Sub(o.Pos)
		return math.Abs(d[0]) <= o.Size[0]/2 && math.Abs(d[1]) <= o.Size[1]/2
	case Circle, GravityWell, BlackHole:
		d := p.Sub(o.Pos)
		return d.Dot(d) <= o.Radius*o.Radius
	case FlowControl:
		k := physics.Kinetic{Pos: p}
		for _, seg := range o.segments {
			if seg.touches(&k) {
				return true
			}
		}
	}
	return false
}

// toggle flips a gravity well between attracting and repelling
func (o *Object) toggle() bool {
	if o.Kind != GravityWell {
		return false
	}
	o.Sign = -o.Sign
	if o.Sign > 0 {
		o.Color = wellAttractColor
	} else {
		o.Color = wellRepelColor
	}
	return true
}

// addPoint extends a flow chain and rebuilds its segments
func (o *Object) addPoint(p mgl64.Vec2) {
	o.Points = append(o.Points, p)
	o.rebuildFlow()
}

func (o *Object) rebuildFlow() {
	o.segments = o.segments[:0]
	if len(o.Points) == 0 {
		return
	}
	var sum mgl64.Vec2
	for _, p := range o.Points {
		sum = sum.Add(p)
	}
	o.Pos = sum.Mul(1 / float64(len(o.Points)))

	width := o.settings.Const.FlowWidth
	for i := 0; i+1 < len(o.Points); i++ {
		a, b := o.Points[i], o.Points[i+1]
		d := b.Sub(a)
		l := d.Len()
		if l == 0 {
			continue
		}
		o.segments = append(o.segments, flowSegment{
			mid:   a.Add(b).Mul(0.5),
			dir:   d.Mul(1 / l),
			angle: math.Atan2(d[1], d[0]),
			half:  math.Max(l, width) / 2,
		})
	}
}

// touches rotates the particle into the segment frame, clamps it to the
// square region and checks the clamped point against the particle radius
func (seg flowSegment) touches(k *physics.Kinetic) bool {
	local := mgl64.Rotate2D(-seg.angle).Mul2x1(k.Pos.Sub(seg.mid))
	cl := mgl64.Vec2{
		physics.Clamp(local[0], -seg.half, seg.half),
		physics.Clamp(local[1], -seg.half, seg.half),
	}
	d := local.Sub(cl)
	return d.Dot(d) <= k.Radius*k.Radius
}

// dispose releases owned geometry
func (o *Object) dispose() {
	o.Points = nil
	o.segments = nil
	o.removed = true
}

// apply runs the object's effect on nearby particles. It returns the ids of
// particles that must explode and the particles it moved.
func (o *Object) apply(nearby []*Particle) (explode []*Particle, moved []*Particle) {
	s := o.settings
	cor := s.Vars.Restitution

	for _, p := range nearby {
		if p.removed || p.claimed {
			continue
		}
		switch o.Kind {
		case Rectangle:
			if _, hit := physics.ReflectRect(&p.Kinetic, o.Pos, o.Size, cor); hit {
				moved = append(moved, p)
			}
		case Circle:
			if _, hit := physics.ReflectCircle(&p.Kinetic, o.Pos, o.Radius, cor); hit {
				moved = append(moved, p)
			}
		case GravityWell:
			if p.Grabbed {
				continue
			}
			p.Vel = p.Vel.Add(physics.Pull(o.Pos, p.Pos, p.Mass, physics.Force{
				Mode:      physics.Mode(o.Sign),
				Source:    o.Radius,
				Strength:  s.Vars.WellStrength,
				Softening: s.Const.Softening,
				Cap:       o.capFor(physics.Mode(o.Sign)),
				Dt:        s.Vars.Dt,
				Immortal:  p.Immortal,
			}))
		case BlackHole:
			if o.swallow(p) {
				explode = append(explode, p)
			}
		case Accelerator, Decelerator:
			if physics.InsideRect(&p.Kinetic, o.Pos, o.Size) {
				o.boost(p)
			}
		case FlowControl:
			for _, seg := range o.segments {
				if seg.touches(&p.Kinetic) {
					p.Vel = p.Vel.Add(seg.dir.Mul(s.Vars.FlowStrength * s.Vars.Dt))
				}
			}
		}
	}
	return explode, moved
}

func (o *Object) capFor(m physics.Mode) float64 {
	if m == physics.Repulse {
		return o.settings.Const.RepulsionCap
	}
	return o.settings.Const.AttractionCap
}

// swallow pulls a particle into a black hole, squeezes it when inside the
// radius and reports whether it reached the core
func (o *Object) swallow(p *Particle) bool {
	s := o.settings
	if !p.Grabbed {
		p.Vel = p.Vel.Add(physics.Pull(o.Pos, p.Pos, p.Mass, physics.Force{
			Mode:      physics.Attract,
			Source:    o.Radius,
			Strength:  s.Vars.BlackHoleStrength,
			Softening: s.Const.Softening,
			Cap:       s.Const.AttractionCap,
			Divisor:   s.Const.BlackHoleDivisor,
			Dt:        s.Vars.Dt,
			Immortal:  p.Immortal,
			Range:     o.Radius,
		}))
	}

	d := p.Pos.Sub(o.Pos)
	d2 := d.Dot(d)
	if r2 := o.Radius * o.Radius; r2 > 0 && d2 < r2 {
		p.distort = math.Min(p.distort, d2/r2)
		if p.Cooldown < s.Const.CooldownTicks {
			p.Cooldown = s.Const.CooldownTicks
		}
	}
	return p.Immortal == 0 && physics.InCore(o.Pos, o.Radius, p.Pos, s.Const.BlackHoleCore)
}

// boost scales each velocity component by the zone strength, clamped to MaxSpeed
func (o *Object) boost(p *Particle) {
	v := o.settings.Vars
	f := v.ZoneStrength
	if f <= 0 {
		return
	}
	if o.Kind == Decelerator {
		f = 1 / f
	}
	p.Vel[0] = physics.Clamp(p.Vel[0]*f, -v.MaxSpeed, v.MaxSpeed)
	p.Vel[1] = physics.Clamp(p.Vel[1]*f, -v.MaxSpeed, v.MaxSpeed)
}
