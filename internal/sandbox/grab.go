package sandbox

import (
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// grabHold is the spring state of one grabbed particle
type grabHold struct {
	offset mgl64.Vec2 // particle position relative to the grab point
	vel    mgl64.Vec2 // spring velocity in units per second
}

// grabber tracks direct manipulation. Grabbed particles chase the pointer on
// a damped spring instead of integrating.
type grabber struct {
	spring harmonica.Spring
	fps    float64
	point  mgl64.Vec2
	active bool
	holds  map[uint64]*grabHold
}

func newGrabber(c Constants) *grabber {
	return &grabber{
		spring: harmonica.NewSpring(harmonica.FPS(c.TickRate), c.GrabFrequency, c.GrabDamping),
		fps:    float64(c.TickRate),
		holds:  make(map[uint64]*grabHold),
	}
}

// follow advances one grabbed particle toward its target
func (g *grabber) follow(p *Particle) {
	h, ok := g.holds[p.id]
	if !ok {
		p.Grabbed = false
		return
	}
	target := g.point.Add(h.offset)
	x, vx := g.spring.Update(p.Pos[0], h.vel[0], target[0])
	y, vy := g.spring.Update(p.Pos[1], h.vel[1], target[1])
	p.Pos = mgl64.Vec2{x, y}
	h.vel = mgl64.Vec2{vx, vy}
	// per-tick velocity so the particle keeps moving when released
	p.Vel = h.vel.Mul(1 / g.fps)
}

// rekey moves a hold to a replacement particle
func (g *grabber) rekey(from, to uint64) {
	if h, ok := g.holds[from]; ok {
		delete(g.holds, from)
		g.holds[to] = h
	}
}

func (g *grabber) drop(id uint64) {
	delete(g.holds, id)
	if len(g.holds) == 0 {
		g.active = false
	}
}

func (g *grabber) reset() {
	g.holds = make(map[uint64]*grabHold)
	g.active = false
}

// grab selects every particle within GrabRadius of point
func (w *World) grab(point mgl64.Vec2) error {
	w.release()
	near := w.particleGrid.QueryNear(point, w.settings.Const.GrabRadius+w.settings.Const.MaxRadius, 0)
	for _, p := range near {
		d := p.Pos.Sub(point)
		r := p.Radius + w.settings.Const.GrabRadius
		if d.Dot(d) > r*r {
			continue
		}
		p.Grabbed = true
		w.grabs.holds[p.id] = &grabHold{offset: d}
	}
	if len(w.grabs.holds) == 0 {
		return ErrNoTarget
	}
	w.grabs.point = point
	w.grabs.active = true
	return nil
}

func (w *World) moveGrab(point mgl64.Vec2) {
	if w.grabs.active {
		w.grabs.point = point
	}
}

func (w *World) release() {
	for id := range w.grabs.holds {
		if p, ok := w.particleIndex[id]; ok {
			p.Grabbed = false
		}
	}
	w.grabs.reset()
}
