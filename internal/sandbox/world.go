// Package sandbox runs the particle sandbox: bodies, their lifecycle and the
// per-tick update that ties the grid, forces and collisions together.
package sandbox

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/grid"
	"github.com/olivierh59500/particle-sandbox-go/internal/physics"
)

// Options configure a World beyond its Settings
type Options struct {
	Width, Height float64
	Seed          int64
	Now           func() time.Time // clock for pruning and tick rate, time.Now when nil
	Logger        *log.Logger      // nil disables logging
}

// Report summarises one call to Step
type Report struct {
	Tick             uint64
	Particles        int
	Objects          int
	ParticlesChanged bool
	ObjectsChanged   bool
	Splits           int
	Merges           int
	Deaths           int
	Explosions       int
	TPS              float64
	Paused           bool
	Errors           []error
}

// tickEvents are derived transitions collected during the passes
type tickEvents struct {
	explode []*Particle
	merges  [][]*Particle
	split   []*Particle
	die     []*Particle
}

// World owns every body and runs the simulation. Submit is safe from any
// goroutine; everything else belongs to the goroutine calling Step.
type World struct {
	settings      *Settings
	width, height float64

	particles     []*Particle
	particleIndex map[uint64]*Particle
	particleGrid  *grid.Grid[*Particle]

	objects     []*Object
	objectIndex map[uint64]*Object
	objectGrid  *grid.Grid[*Object]
	objectReach float64 // largest object reach, bounds hit-test queries

	nextPID, nextOID uint64
	spawn            *spawner
	grabs            *grabber
	building         *Object // flow chain under construction
	paused           bool
	tick             uint64
	events           tickEvents
	lastParticles    int
	lastObjects      int

	mu    sync.Mutex
	queue []Command

	now    func() time.Time
	rate   *RateMeter
	logger *log.Logger
}

// NewWorld creates an empty world
func NewWorld(s Settings, opts Options) (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !(opts.Width > 0) || !(opts.Height > 0) {
		return nil, &ConstructionError{Body: "world", Field: "size", Reason: "must be positive"}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	settings := s
	w := &World{
		settings:      &settings,
		width:         opts.Width,
		height:        opts.Height,
		particleIndex: make(map[uint64]*Particle),
		particleGrid:  grid.New[*Particle](s.Const.CellSize(), s.Const.PruneInterval),
		objectIndex:   make(map[uint64]*Object),
		objectGrid:    grid.New[*Object](s.Const.CellSize(), s.Const.PruneInterval),
		nextPID:       1,
		nextOID:       1,
		spawn:         newSpawner(opts.Seed),
		grabs:         newGrabber(s.Const),
		now:           opts.Now,
		rate:          NewRateMeter(time.Second),
		logger:        opts.Logger,
	}
	return w, nil
}

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

// Submit queues a command for the next tick boundary
func (w *World) Submit(cmd Command) {
	w.mu.Lock()
	w.queue = append(w.queue, cmd)
	w.mu.Unlock()
}

// Apply runs a command immediately. Call it only between ticks from the
// goroutine that drives Step.
func (w *World) Apply(cmd Command) error {
	return cmd.apply(w)
}

// Settings returns a copy of the current settings
func (w *World) Settings() Settings { return *w.settings }

// Size returns the world bounds
func (w *World) Size() (float64, float64) { return w.width, w.height }

// Paused reports whether ticks are gated
func (w *World) Paused() bool { return w.paused }

// Tick returns the number of completed ticks since the last reset
func (w *World) Tick() uint64 { return w.tick }

// ParticleCount returns the live particle count
func (w *World) ParticleCount() int { return len(w.particleIndex) }

// ObjectCount returns the live object count
func (w *World) ObjectCount() int { return len(w.objectIndex) }

// Step applies queued commands and, unless paused, advances one tick
func (w *World) Step() Report {
	var rep Report
	rep.Errors = w.applyQueued()

	if !w.paused {
		w.tick++
		for _, p := range w.particles {
			p.claimed = false
		}
		w.particlePass()
		w.objectPass()
		w.drain(&rep)

		now := w.now()
		w.particleGrid.Prune(now)
		w.objectGrid.Prune(now)
		w.rate.Mark(now)
	}

	rep.Tick = w.tick
	rep.Paused = w.paused
	rep.TPS = w.rate.Rate()
	rep.Particles = len(w.particleIndex)
	rep.Objects = len(w.objectIndex)
	rep.ParticlesChanged = rep.Particles != w.lastParticles
	rep.ObjectsChanged = rep.Objects != w.lastObjects
	w.lastParticles, w.lastObjects = rep.Particles, rep.Objects
	return rep
}

func (w *World) applyQueued() []error {
	w.mu.Lock()
	queue := w.queue
	w.queue = nil
	w.mu.Unlock()

	var errs []error
	for _, cmd := range queue {
		if err := cmd.apply(w); err != nil {
			errs = append(errs, err)
			if !errors.Is(err, ErrNoTarget) {
				w.logf("command %T: %v", cmd, err)
			}
		}
	}
	return errs
}

// particlePass moves every particle once: effects, integration, contacts,
// edges, aging. Each particle leaves the grid while it is updated.
func (w *World) particlePass() {
	s := w.settings
	for _, p := range w.particles {
		if p.removed {
			continue
		}
		w.particleGrid.Remove(p)
		p.tickCounters()

		if p.Grabbed {
			w.grabs.follow(p)
			w.keepInside(p)
			p.refresh()
			w.particleGrid.Insert(p)
			continue
		}

		if p.Kind != Plain && p.Kind != Merger {
			p.effect(w.particleGrid.QueryNear(p.Pos, s.Const.InteractionRadius, p.id))
		}
		p.integrate()
		if s.Toggles.Collisions || s.Toggles.Merging {
			w.contacts(p)
		}
		w.keepInside(p)
		p.age()

		if !p.claimed {
			switch p.fate() {
			case fateSplit:
				p.claimed = true
				w.events.split = append(w.events.split, p)
			case fateDie:
				p.claimed = true
				w.events.die = append(w.events.die, p)
			}
		}
		p.refresh()
		w.particleGrid.Insert(p)
	}
}

// contacts resolves overlaps with neighbours or gathers a merge group
func (w *World) contacts(p *Particle) {
	s := w.settings
	near := w.particleGrid.QueryNear(p.Pos, p.Radius+s.Const.MaxRadius, p.id)

	var group []*Particle
	for _, n := range near {
		if n.removed || !physics.Overlaps(&p.Kinetic, &n.Kinetic) {
			continue
		}
		if w.wantsMerge(p, n) {
			n.claimed = true
			group = append(group, n)
			continue
		}
		if !s.Toggles.Collisions || p.Cooldown > 0 || n.Cooldown > 0 {
			continue
		}
		impact, _ := physics.Collide(&p.Kinetic, &n.Kinetic, physics.RepositionThis, s.Vars.Restitution)
		p.hit(impact)
		n.hit(impact)
	}
	if len(group) > 0 {
		p.claimed = true
		w.events.merges = append(w.events.merges, append([]*Particle{p}, group...))
	}
}

// wantsMerge rolls the merge chance for two touching merge-seekers
func (w *World) wantsMerge(p, n *Particle) bool {
	s := w.settings
	if !s.Toggles.Merging || p.Kind != Merger || n.Kind != Merger {
		return false
	}
	if p.claimed || n.claimed || p.immune() || n.immune() {
		return false
	}
	return w.spawn.rng.Float64() < s.Vars.MergeChance
}

// keepInside reflects off the world edges, or wraps when walls are off
func (w *World) keepInside(p *Particle) {
	if w.settings.Toggles.Walls {
		impact, _ := physics.ReflectEdges(&p.Kinetic, w.width, w.height, w.settings.Vars.Restitution)
		p.hit(impact)
		return
	}
	physics.Wrap(&p.Kinetic, w.width, w.height)
}

// objectPass lets each environment body act on the particles within its reach
func (w *World) objectPass() {
	for _, o := range w.objects {
		if o.removed {
			continue
		}
		near := w.particleGrid.QueryNear(o.Pos, o.reach(), 0)
		explode, moved := o.apply(near)
		for _, p := range moved {
			w.particleGrid.Move(p)
		}
		for _, p := range explode {
			if !p.claimed {
				p.claimed = true
				w.events.explode = append(w.events.explode, p)
			}
		}
	}
}

// drain turns the collected transitions into structural changes
func (w *World) drain(rep *Report) {
	ev := &w.events

	for _, p := range ev.explode {
		if p.removed {
			continue
		}
		rep.Explosions++
		if p.splittable() {
			w.replace(p, w.split(p))
			rep.Splits++
		} else {
			w.removeParticle(p)
			rep.Deaths++
		}
	}

	for _, group := range ev.merges {
		if anyRemoved(group) {
			continue
		}
		np, dom, err := w.mergeGroup(group)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			continue
		}
		if np.Grabbed {
			w.grabs.rekey(dom.id, np.id)
		}
		for _, p := range group {
			w.removeParticle(p)
		}
		w.addParticle(np)
		rep.Merges++
	}

	for _, p := range ev.split {
		if p.removed {
			continue
		}
		w.replace(p, w.split(p))
		rep.Splits++
	}

	for _, p := range ev.die {
		if p.removed {
			continue
		}
		w.removeParticle(p)
		rep.Deaths++
	}

	w.compactParticles()
	*ev = tickEvents{}
}

func (w *World) mergeGroup(group []*Particle) (*Particle, *Particle, error) {
	np, err := w.merge(group)
	if err != nil {
		return nil, nil, err
	}
	dom := group[0]
	for _, p := range group[1:] {
		if p.Mass > dom.Mass {
			dom = p
		}
	}
	return np, dom, nil
}

func anyRemoved(group []*Particle) bool {
	for _, p := range group {
		if p.removed {
			return true
		}
	}
	return false
}

// replace swaps a particle for its children
func (w *World) replace(p *Particle, children []*Particle) {
	w.removeParticle(p)
	for _, c := range children {
		w.addParticle(c)
	}
}

func (w *World) nextParticleID() uint64 {
	id := w.nextPID
	w.nextPID++
	return id
}

func (w *World) nextObjectID() uint64 {
	id := w.nextOID
	w.nextOID++
	return id
}

// addParticle is the only way a particle enters the world
func (w *World) addParticle(p *Particle) {
	w.particles = append(w.particles, p)
	w.particleIndex[p.id] = p
	w.particleGrid.Insert(p)
}

// removeParticle is the only way a particle leaves the world. The list is
// compacted separately so removal is safe while iterating it.
func (w *World) removeParticle(p *Particle) {
	if p.removed {
		return
	}
	p.removed = true
	delete(w.particleIndex, p.id)
	w.particleGrid.Remove(p)
	w.grabs.drop(p.id)
}

func (w *World) compactParticles() {
	live := w.particles[:0]
	for _, p := range w.particles {
		if !p.removed {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(w.particles); i++ {
		w.particles[i] = nil
	}
	w.particles = live
}

// addObject is the only way an object enters the world
func (w *World) addObject(o *Object) {
	w.objects = append(w.objects, o)
	w.objectIndex[o.id] = o
	w.objectGrid.Insert(o)
	w.objectReach = math.Max(w.objectReach, o.reach())
}

// removeObject is the only way an object leaves the world
func (w *World) removeObject(o *Object) {
	if o.removed {
		return
	}
	delete(w.objectIndex, o.id)
	w.objectGrid.Remove(o)
	if w.building == o {
		w.building = nil
	}
	o.dispose()

	live := w.objects[:0]
	for _, x := range w.objects {
		if !x.removed {
			live = append(live, x)
		}
	}
	w.objects = live
}

// spawnParticle builds and registers a particle, randomizing missing params
func (w *World) spawnParticle(kind ParticleKind, params ParticleParams) (*Particle, error) {
	s := w.settings
	if kind >= particleKindCount {
		return nil, &ConstructionError{Body: "particle", Field: "kind", Reason: kind.String()}
	}

	mass := w.spawn.between(s.Vars.MassMin, s.Vars.MassMax)
	if params.Mass != nil {
		mass = *params.Mass
	}
	r := physics.Clamp(mass*s.Const.RadiusRatio, s.Const.MinRadius, s.Const.MaxRadius)

	var pos mgl64.Vec2
	if params.Pos != nil {
		pos = *params.Pos
	} else {
		pos = w.spawn.position(w.width, w.height, r)
	}
	var vel mgl64.Vec2
	if params.Vel != nil {
		vel = *params.Vel
	} else if physics.Finite(pos) {
		vel = w.spawn.velocity(pos, s.Const.NoiseScale, s.Vars.SpeedMax)
	}

	p, err := newParticle(w.nextPID, kind, pos, vel, mass, s)
	if err != nil {
		return nil, err
	}

	lifespan := w.spawn.between(s.Vars.LifespanMin, s.Vars.LifespanMax)
	if params.Lifespan != nil {
		lifespan = *params.Lifespan
	}
	if !(lifespan > 0) || math.IsInf(lifespan, 0) {
		return nil, &ConstructionError{Body: "particle", Field: "lifespan", Reason: "must be positive"}
	}
	p.Lifespan, p.InitialLifespan = lifespan, lifespan

	if kind == Charged {
		p.Charge = w.spawn.charge()
		if params.Charge != nil {
			if *params.Charge < 0 {
				p.Charge = -1
			} else {
				p.Charge = 1
			}
		}
	}
	if params.Immortal != nil {
		p.Immortal = *params.Immortal
	}
	if params.Color != nil {
		p.Color, p.fixColor = *params.Color, true
	}

	w.nextPID++
	w.addParticle(p)
	return p, nil
}

// spawnObject builds and registers an environment body
func (w *World) spawnObject(kind ObjectKind, params ObjectParams) (*Object, error) {
	var pos mgl64.Vec2
	switch {
	case params.Pos != nil:
		pos = *params.Pos
	case len(params.Points) > 0:
		pos = params.Points[0]
	default:
		pos = w.spawn.position(w.width, w.height, 0)
	}

	o, err := newObject(w.nextOID, kind, pos, w.settings)
	if err != nil {
		return nil, err
	}

	switch kind {
	case Rectangle, Accelerator, Decelerator:
		side := float64(defaultRectSize)
		if kind != Rectangle {
			side = defaultZoneSize
		}
		o.Size = mgl64.Vec2{side, side}
		if params.Size != nil {
			o.Size = *params.Size
		}
		if !physics.Finite(o.Size) || !(o.Size[0] > 0) || !(o.Size[1] > 0) {
			return nil, &ConstructionError{Body: "object", Field: "size", Reason: "must be positive"}
		}
	case Circle, GravityWell, BlackHole:
		o.Radius = map[ObjectKind]float64{
			Circle:      defaultCircleRadius,
			GravityWell: defaultWellRadius,
			BlackHole:   defaultHoleRadius,
		}[kind]
		if params.Radius != nil {
			o.Radius = *params.Radius
		}
		if !(o.Radius > 0) || math.IsInf(o.Radius, 0) {
			return nil, &ConstructionError{Body: "object", Field: "radius", Reason: "must be positive"}
		}
		if kind == GravityWell && params.Sign != nil && *params.Sign < 0 {
			o.toggle()
		}
	case FlowControl:
		for _, pt := range params.Points {
			if !physics.Finite(pt) {
				return nil, &ConstructionError{Body: "object", Field: "points", Reason: "are not finite"}
			}
		}
		if len(params.Points) == 0 {
			o.Points = []mgl64.Vec2{pos}
		} else {
			o.Points = append([]mgl64.Vec2(nil), params.Points...)
		}
		o.rebuildFlow()
	}

	w.nextOID++
	w.addObject(o)
	return o, nil
}

// findParticle resolves a delete target: explicit ref, then hit test, then random
func (w *World) findParticle(point *mgl64.Vec2, ref uint64, filter *ParticleKind) *Particle {
	match := func(p *Particle) bool { return filter == nil || p.Kind == *filter }

	if p, ok := w.particleIndex[ref]; ok && match(p) {
		return p
	}
	if point != nil {
		var best *Particle
		bestD := math.Inf(1)
		for _, p := range w.particleGrid.QueryNear(*point, w.settings.Const.MaxRadius, 0) {
			d := p.Pos.Sub(*point)
			d2 := d.Dot(d)
			if match(p) && d2 <= p.Radius*p.Radius && d2 < bestD {
				best, bestD = p, d2
			}
		}
		if best != nil {
			return best
		}
	}

	var candidates []*Particle
	for _, p := range w.particles {
		if !p.removed && match(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[w.spawn.rng.Intn(len(candidates))]
}

// objectsAt returns the objects whose shape contains point, newest first
func (w *World) objectsAt(point mgl64.Vec2) []*Object {
	var out []*Object
	for _, o := range w.objectGrid.QueryNear(point, w.objectReach, 0) {
		if o.Contains(point) {
			out = append(out, o)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].id > out[j-1].id; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (w *World) findObject(point *mgl64.Vec2, ref uint64, filter *ObjectKind) *Object {
	match := func(o *Object) bool { return filter == nil || o.Kind == *filter }

	if o, ok := w.objectIndex[ref]; ok && match(o) {
		return o
	}
	if point != nil {
		for _, o := range w.objectsAt(*point) {
			if match(o) {
				return o
			}
		}
	}

	var candidates []*Object
	for _, o := range w.objects {
		if match(o) {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[w.spawn.rng.Intn(len(candidates))]
}

// flow builds a FlowControl body incrementally
func (w *World) flow(stage FlowStage, point mgl64.Vec2) error {
	switch stage {
	case FlowNew:
		if w.building != nil {
			w.finishFlow()
		}
		o, err := w.spawnObject(FlowControl, ObjectParams{Points: []mgl64.Vec2{point}})
		if err != nil {
			return err
		}
		w.building = o
		return nil
	case FlowNext, FlowEnd:
		if w.building == nil {
			return ErrNoTarget
		}
		if !physics.Finite(point) {
			return &ConstructionError{Body: "object", Field: "points", Reason: "are not finite"}
		}
		o := w.building
		last := o.Points[len(o.Points)-1]
		if point.Sub(last).Len() >= w.settings.Const.FlowMinSpacing {
			o.addPoint(point)
			w.objectGrid.Move(o)
			w.objectReach = math.Max(w.objectReach, o.reach())
		}
		if stage == FlowEnd {
			w.finishFlow()
		}
		return nil
	}
	return ErrBadFlowStage
}

// finishFlow keeps the chain under construction if it has a segment
func (w *World) finishFlow() {
	o := w.building
	w.building = nil
	if len(o.segments) == 0 {
		w.removeObject(o)
	}
}

// reset drops every body and restarts the id counters
func (w *World) reset() {
	for _, p := range w.particles {
		p.removed = true
	}
	for _, o := range w.objects {
		o.dispose()
	}
	w.particles = nil
	w.particleIndex = make(map[uint64]*Particle)
	w.particleGrid.Clear()
	w.objects = nil
	w.objectIndex = make(map[uint64]*Object)
	w.objectGrid.Clear()
	w.objectReach = 0
	w.nextPID, w.nextOID = 1, 1
	w.grabs.reset()
	w.building = nil
	w.events = tickEvents{}
	w.tick = 0
	w.rate.Reset()
}
