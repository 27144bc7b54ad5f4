package sandbox

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Aging regimes: the exponent applied to the remaining lifespan per tick
const (
	agingHighLife   = 50000
	agingHighExp    = 0.3
	agingFreshShare = 0.75
	agingFreshExp   = 0.2
	agingLateExp    = 0.1
)

// agingRate returns the lifespan lost this tick before the drain multiplier
func agingRate(lifespan, initial float64) float64 {
	if lifespan <= 0 {
		return 0
	}
	exp := agingLateExp
	switch {
	case lifespan > agingHighLife:
		exp = agingHighExp
	case lifespan > agingFreshShare*initial:
		exp = agingFreshExp
	}
	return math.Pow(lifespan, exp)
}

// tickCounters counts down the immortality and cooldown windows
func (p *Particle) tickCounters() {
	if p.Immortal > 0 {
		p.Immortal--
	}
	if p.Cooldown > 0 {
		p.Cooldown--
	}
}

// age decays the lifespan and relaxes the life drain toward 1
func (p *Particle) age() {
	s := p.settings
	if !s.Toggles.Aging || p.Immortal > 0 || p.Grabbed {
		return
	}
	p.Lifespan -= agingRate(p.Lifespan, p.InitialLifespan) * p.Drain * s.Vars.Dt
	if p.Lifespan < 0 {
		p.Lifespan = 0
	}
	p.Drain = 1 + (p.Drain-1)*s.Const.DrainDecay
}

// hit adds life drain proportional to an impact speed
func (p *Particle) hit(impact float64) {
	if impact > 0 {
		p.Drain += impact * p.settings.Const.DrainPerImpact
	}
}

// fate is the lifecycle transition decided for a particle this tick
type fate uint8

const (
	fateAlive fate = iota
	fateSplit
	fateDie
)

func (p *Particle) fate() fate {
	switch {
	case p.settings.Toggles.Splitting && p.splittable() && p.Lifespan <= p.InitialLifespan/2:
		return fateSplit
	case p.Lifespan <= 0:
		return fateDie
	}
	return fateAlive
}

// partition breaks total into random pieces no lighter than min. Pieces sum
// to total; at least two are returned when total allows it, otherwise two
// pieces floored at min.
func partition(total, min float64, maxParts int, rng *rand.Rand) []float64 {
	if maxParts < 2 {
		maxParts = 2
	}
	var parts []float64
	rem := total
	for rem >= 2*min && len(parts) < maxParts-1 {
		m := min + rng.Float64()*(rem/2-min)
		parts = append(parts, m)
		rem -= m
	}
	parts = append(parts, rem)
	if len(parts) == 1 {
		h := math.Max(total/2, min)
		parts = []float64{h, h}
	}
	return parts
}

// childMasses splits the parent mass into child masses, subdividing heavy
// children again up to MaxSplitDepth. Pieces under MinMass are discarded.
func childMasses(mass float64, c Constants, rng *rand.Rand) []float64 {
	total := mass * c.SplitMassFraction
	var out []float64
	var walk func(m float64, depth int)
	walk = func(m float64, depth int) {
		for _, part := range partition(m, c.MinMass, c.MaxChildren, rng) {
			switch {
			case part < c.MinMass:
				continue
			case part > c.SplitThreshold && depth < c.MaxSplitDepth && part >= 2*c.MinMass:
				walk(part, depth+1)
			default:
				out = append(out, part)
			}
		}
	}
	walk(total, 1)
	return out
}

// split builds the children replacing p
func (w *World) split(p *Particle) []*Particle {
	c := w.settings.Const
	masses := childMasses(p.Mass, c, w.spawn.rng)

	children := make([]*Particle, 0, len(masses))
	for _, m := range masses {
		ang := w.spawn.angle()
		out := mgl64.Vec2{math.Cos(ang), math.Sin(ang)}
		pos := p.Pos.Add(out.Mul(p.Radius * w.spawn.rng.Float64()))
		vel := p.Vel.Mul(c.SplitVelocityScale).Add(out.Mul(c.SplitKick))

		child, err := newParticle(w.nextParticleID(), p.Kind, pos, vel, m, w.settings)
		if err != nil {
			w.logf("split %d: %v", p.id, err)
			continue
		}
		share := m / p.Mass
		child.Charge = p.Charge
		child.Color, child.fixColor = p.Color, p.fixColor
		child.InitialLifespan = p.InitialLifespan * share
		child.Lifespan = child.InitialLifespan
		child.Immortal = c.ImmortalityTicks
		child.Cooldown = c.CooldownTicks
		children = append(children, child)
	}
	return children
}

// merge fuses a group of merge-seeking particles into one replacement.
// The heaviest member dominates; grab state survives only through it.
func (w *World) merge(group []*Particle) (*Particle, error) {
	dom := group[0]
	for _, p := range group[1:] {
		if p.Mass > dom.Mass {
			dom = p
		}
	}

	s := w.settings
	var others, lifespan, initial, mass float64
	var momentum mgl64.Vec2
	immortal := 0
	for _, p := range group {
		if p != dom {
			others += p.Mass
		}
		lifespan += p.Lifespan
		initial += p.InitialLifespan
		immortal += p.Immortal
		mass += p.Mass
		momentum = momentum.Add(p.Vel.Mul(p.Mass))
	}

	newMass := math.Max(dom.Mass+s.Vars.MergeSign*others, s.Const.MinMass)
	vel := momentum.Mul(1 / mass)

	np, err := newParticle(w.nextParticleID(), dom.Kind, dom.Pos, vel, newMass, s)
	if err != nil {
		return nil, err
	}
	np.Charge = dom.Charge
	np.Color, np.fixColor = dom.Color, dom.fixColor
	np.Lifespan = lifespan
	np.InitialLifespan = initial
	np.Immortal = immortal / len(group)
	np.Cooldown = s.Const.CooldownTicks
	np.Grabbed = dom.Grabbed
	return np, nil
}
