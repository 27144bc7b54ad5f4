package sandbox

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/physics"
)

// Particle is a simulated disc. Kind selects its effect on neighbours.
type Particle struct {
	physics.Kinetic

	id       uint64
	Kind     ParticleKind
	Charge   int // ±1, charged particles only
	Color    color.RGBA
	fixColor bool

	Immortal        int // ticks left without aging, forces damped
	Cooldown        int // ticks left without contacts or merges
	Lifespan        float64
	InitialLifespan float64
	Drain           float64 // life-drain multiplier, decays back to 1
	Grabbed         bool

	settings *Settings
	distort  float64 // radius scale imposed this tick, 1 when untouched
	removed  bool
	claimed  bool // already part of a merge or split this tick
}

// ID implements grid.Item
func (p *Particle) ID() uint64 { return p.id }

// Position implements grid.Item
func (p *Particle) Position() mgl64.Vec2 { return p.Pos }

// newParticle validates and builds a particle. Radius and color are derived.
func newParticle(id uint64, kind ParticleKind, pos, vel mgl64.Vec2, mass float64, s *Settings) (*Particle, error) {
	switch {
	case id == 0:
		return nil, &ConstructionError{Body: "particle", Field: "id", Reason: "is missing"}
	case s == nil:
		return nil, &ConstructionError{Body: "particle", Field: "settings", Reason: "is missing"}
	case !physics.Finite(pos):
		return nil, &ConstructionError{Body: "particle", Field: "position", Reason: "is not finite"}
	case !physics.Finite(vel):
		return nil, &ConstructionError{Body: "particle", Field: "velocity", Reason: "is not finite"}
	case !(mass > 0) || math.IsInf(mass, 0):
		return nil, &ConstructionError{Body: "particle", Field: "mass", Reason: "must be positive"}
	case kind >= particleKindCount:
		return nil, &ConstructionError{Body: "particle", Field: "kind", Reason: kind.String()}
	}

	p := &Particle{
		Kinetic:  physics.Kinetic{Pos: pos, Vel: vel, Mass: mass},
		id:       id,
		Kind:     kind,
		Drain:    1,
		settings: s,
		distort:  1,
	}
	if kind == Charged {
		p.Charge = 1
	}
	p.refresh()
	return p, nil
}

// refresh recomputes radius from mass (distortion first, clamp after) and the speed color
func (p *Particle) refresh() {
	c := p.settings.Const
	p.Radius = physics.Clamp(p.Mass*c.RadiusRatio*p.distort, c.MinRadius, c.MaxRadius)
	p.distort = 1
	if !p.fixColor {
		p.Color = speedColor(p.Speed(), c.SpeedColorMax)
	}
}

// immune reports whether contacts and merges are suspended
func (p *Particle) immune() bool {
	return p.Immortal > 0 || p.Cooldown > 0
}

// splittable reports whether the particle is heavy enough to break apart
func (p *Particle) splittable() bool {
	return p.Mass > 2*p.settings.Const.MinMass
}

// effect applies the particle's variant influence to its neighbours
func (p *Particle) effect(neighbors []*Particle) {
	s := p.settings
	if !s.Toggles.Forces {
		return
	}

	f := physics.Force{
		Source:    p.Mass,
		Softening: s.Const.Softening,
		Dt:        s.Vars.Dt,
	}
	switch p.Kind {
	case Plain, Merger:
		return
	case Attractor:
		f.Mode, f.Strength, f.Cap = physics.Attract, s.Vars.AttractionStrength, s.Const.AttractionCap
	case Repulser:
		f.Mode, f.Strength, f.Cap = physics.Repulse, s.Vars.RepulsionStrength, s.Const.RepulsionCap
	case Charged:
		f.Strength = s.Vars.ChargeStrength
	}

	for _, n := range neighbors {
		if n.removed || n.Grabbed {
			continue
		}
		if p.Kind == Charged {
			if n.Kind != Charged {
				continue
			}
			if n.Charge == p.Charge {
				f.Mode, f.Cap = physics.Repulse, s.Const.RepulsionCap
			} else {
				f.Mode, f.Cap = physics.Attract, s.Const.AttractionCap
			}
		}
		f.Immortal = n.Immortal
		n.Vel = n.Vel.Add(physics.Pull(p.Pos, n.Pos, n.Mass, f))
	}
}

// integrate advances velocity (friction) and position by one step
func (p *Particle) integrate() {
	v := p.settings.Vars
	damp := 1 - v.Friction*v.Dt
	if damp < 0 {
		damp = 0
	}
	p.Vel = p.Vel.Mul(damp)
	p.Pos = p.Pos.Add(p.Vel.Mul(v.Dt))
}

// speedColor maps speed onto a blue (slow) to red (fast) hue
func speedColor(speed, max float64) color.RGBA {
	t := 0.0
	if max > 0 {
		t = math.Min(speed/max, 1)
	}
	r, g, b := hsvToRGB(240*(1-t), 0.85, 1)
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

// hsvToRGB helper
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
