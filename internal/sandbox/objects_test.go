package sandbox

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestBlackHole_ExplodesAtCore(t *testing.T) {
	w := newTestWorld(t, nil)
	if _, err := w.spawnObject(BlackHole, ObjectParams{Pos: vec(400, 300)}); err != nil {
		t.Fatal(err)
	}
	still(t, w, Plain, 402, 300, 30)

	rep := w.Step()
	if rep.Explosions != 1 || rep.Particles != 0 {
		t.Fatalf("explosions=%d particles=%d, want 1 and 0", rep.Explosions, rep.Particles)
	}
	checkConsistent(t, w)
}

func TestBlackHole_SplitsHeavyParticle(t *testing.T) {
	w := newTestWorld(t, nil)
	if _, err := w.spawnObject(BlackHole, ObjectParams{Pos: vec(400, 300)}); err != nil {
		t.Fatal(err)
	}
	still(t, w, Plain, 402, 300, 200)

	rep := w.Step()
	if rep.Explosions != 1 || rep.Splits != 1 {
		t.Fatalf("explosions=%d splits=%d, want 1 and 1", rep.Explosions, rep.Splits)
	}
	if rep.Particles < 2 {
		t.Errorf("%d fragments, want at least 2", rep.Particles)
	}
	for _, p := range w.particles {
		if p.Immortal == 0 {
			t.Errorf("fragment %d is not immortal", p.id)
		}
	}
	checkConsistent(t, w)
}

func TestBlackHole_SparesImmortal(t *testing.T) {
	w := newTestWorld(t, nil)
	if _, err := w.spawnObject(BlackHole, ObjectParams{Pos: vec(400, 300)}); err != nil {
		t.Fatal(err)
	}
	p := still(t, w, Plain, 402, 300, 30)
	p.Immortal = 10

	if rep := w.Step(); rep.Explosions != 0 {
		t.Errorf("immortal particle exploded")
	}
}

func TestBlackHole_Falloff(t *testing.T) {
	w := newTestWorld(t, nil)
	o, err := w.spawnObject(BlackHole, ObjectParams{Pos: vec(400, 300)})
	if err != nil {
		t.Fatal(err)
	}
	near := still(t, w, Plain, 424, 300, 30)  // 0.2 R
	far := still(t, w, Plain, 518.8, 300, 30) // 0.99 R

	o.swallow(near)
	o.swallow(far)
	if near.Vel[0] >= 0 || far.Vel[0] > 0 {
		t.Fatalf("pull not toward the hole: near=%v far=%v", near.Vel, far.Vel)
	}
	if near.Vel.Len() < 100*far.Vel.Len() {
		t.Errorf("pull at the rim %v not negligible against %v", far.Vel.Len(), near.Vel.Len())
	}
}

func TestBlackHole_Distorts(t *testing.T) {
	w := newTestWorld(t, nil)
	o, err := w.spawnObject(BlackHole, ObjectParams{Pos: vec(400, 300)})
	if err != nil {
		t.Fatal(err)
	}
	p := still(t, w, Plain, 460, 300, 100) // half the radius

	o.swallow(p)
	if p.Cooldown < w.settings.Const.CooldownTicks {
		t.Errorf("cooldown = %d", p.Cooldown)
	}
	p.refresh()
	if math.Abs(p.Radius-2.5) > 1e-9 {
		t.Errorf("radius = %v, want 2.5", p.Radius)
	}
	p.refresh()
	if math.Abs(p.Radius-10) > 1e-9 {
		t.Errorf("distortion persisted: radius = %v", p.Radius)
	}
}

func TestZones_ScalePerAxis(t *testing.T) {
	w := newTestWorld(t, nil)
	acc, err := w.spawnObject(Accelerator, ObjectParams{Pos: vec(400, 300)})
	if err != nil {
		t.Fatal(err)
	}
	dec, err := w.spawnObject(Decelerator, ObjectParams{Pos: vec(400, 300)})
	if err != nil {
		t.Fatal(err)
	}
	p := still(t, w, Plain, 400, 300, 50)

	p.Vel = *vec(11.9, -5)
	acc.apply([]*Particle{p})
	if p.Vel[0] != 12 || math.Abs(p.Vel[1]+5.25) > 1e-9 {
		t.Errorf("accelerated vel = %v, want (12,-5.25)", p.Vel)
	}

	p.Vel = *vec(10, 0)
	dec.apply([]*Particle{p})
	if math.Abs(p.Vel[0]-10/1.05) > 1e-9 || p.Vel[1] != 0 {
		t.Errorf("decelerated vel = %v", p.Vel)
	}

	p.Pos = *vec(600, 300)
	p.Vel = *vec(10, 0)
	acc.apply([]*Particle{p})
	if p.Vel[0] != 10 {
		t.Errorf("particle outside the zone was boosted to %v", p.Vel)
	}
}

func TestToggleWell_ReversesPull(t *testing.T) {
	w := newTestWorld(t, nil)
	o, err := w.spawnObject(GravityWell, ObjectParams{Pos: vec(400, 300)})
	if err != nil {
		t.Fatal(err)
	}
	p := still(t, w, Plain, 500, 300, 50)

	o.apply([]*Particle{p})
	if p.Vel[0] >= 0 {
		t.Fatalf("well does not attract: vel = %v", p.Vel)
	}
	pulled := p.Vel[0]

	if err := w.Apply(ToggleWell{Point: *vec(400, 300)}); err != nil {
		t.Fatalf("ToggleWell: %v", err)
	}
	if o.Sign != -1 || o.Color != wellRepelColor {
		t.Errorf("sign=%d color=%v after toggle", o.Sign, o.Color)
	}
	p.Vel = *vec(0, 0)
	o.apply([]*Particle{p})
	if math.Abs(p.Vel[0]+pulled) > 1e-12 {
		t.Errorf("repelled vel = %v, want %v", p.Vel[0], -pulled)
	}

	if err := w.Apply(ToggleWell{Point: *vec(10, 10)}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("toggle on empty space: %v", err)
	}
}

func TestFlow_NudgesAlongPath(t *testing.T) {
	w := newTestWorld(t, nil)
	for _, c := range []Flow{
		{Stage: FlowNew, Point: *vec(100, 300)},
		{Stage: FlowNext, Point: *vec(200, 300)},
		{Stage: FlowEnd, Point: *vec(300, 300)},
	} {
		if err := w.Apply(c); err != nil {
			t.Fatalf("%v: %v", c.Stage, err)
		}
	}
	if len(w.objects) != 1 {
		t.Fatalf("%d objects, want 1", len(w.objects))
	}
	o := w.objects[0]
	if len(o.Points) != 3 || len(o.segments) != 2 {
		t.Fatalf("points=%d segments=%d", len(o.Points), len(o.segments))
	}
	if math.Abs(o.Pos[0]-200) > 1e-9 || math.Abs(o.Pos[1]-300) > 1e-9 {
		t.Errorf("pos = %v, want the centroid", o.Pos)
	}

	on := still(t, w, Plain, 150, 300, 50)
	off := still(t, w, Plain, 150, 400, 50)
	o.apply([]*Particle{on, off})
	if math.Abs(on.Vel[0]-w.settings.Vars.FlowStrength) > 1e-12 || on.Vel[1] != 0 {
		t.Errorf("on-path vel = %v", on.Vel)
	}
	if off.Vel != *vec(0, 0) {
		t.Errorf("off-path particle nudged: %v", off.Vel)
	}
	checkConsistent(t, w)
}

// TestFlow_LongSegmentReachesCorners tests that a tick nudges particles in the
// corners of a long segment's square, not only those near the centroid
func TestFlow_LongSegmentReachesCorners(t *testing.T) {
	w := newTestWorld(t, nil)
	for _, c := range []Flow{
		{Stage: FlowNew, Point: *vec(100, 100)},
		{Stage: FlowEnd, Point: *vec(500, 100)},
	} {
		if err := w.Apply(c); err != nil {
			t.Fatalf("%v: %v", c.Stage, err)
		}
	}
	o := w.objects[0]
	p := still(t, w, Plain, 495, 295, 50)
	c := w.settings.Const
	if d := p.Pos.Sub(o.Pos).Len(); d <= 200+c.FlowWidth+c.MaxRadius {
		t.Fatalf("particle at %.1f lies within the endpoints' reach", d)
	}

	w.Step()
	if !(p.Vel[0] > 0) {
		t.Errorf("corner particle not nudged after a tick: vel = %v", p.Vel)
	}
	checkConsistent(t, w)
}

// TestStep_HugeObjectsStayFast tests that the per-tick cost does not grow
// with the area of an object
func TestStep_HugeObjectsStayFast(t *testing.T) {
	w := newTestWorld(t, nil)
	still(t, w, Plain, 400, 300, 50)
	for _, c := range []SpawnObject{
		{Kind: Rectangle, Params: ObjectParams{Pos: vec(-1e6, -1e6), Size: vec(2e6, 2e6)}},
		{Kind: GravityWell, Params: ObjectParams{Pos: vec(400, 300), Radius: ptr(2e6)}},
		{Kind: Accelerator, Params: ObjectParams{Pos: vec(400, 300), Size: vec(2e6, 2e6)}},
	} {
		if err := w.Apply(c); err != nil {
			t.Fatalf("spawn %v: %v", c.Kind, err)
		}
	}

	start := time.Now()
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("10 ticks took %v", d)
	}
	checkConsistent(t, w)
}

func TestFlow_Edges(t *testing.T) {
	w := newTestWorld(t, nil)

	if err := w.Apply(Flow{Stage: FlowEnd, Point: *vec(1, 1)}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("end without new: %v", err)
	}
	if err := w.Apply(Flow{Stage: "sideways"}); !errors.Is(err, ErrBadFlowStage) {
		t.Errorf("bad stage: %v", err)
	}
	if _, err := ParseFlowStage("sideways"); !errors.Is(err, ErrBadFlowStage) {
		t.Errorf("ParseFlowStage: %v", err)
	}

	// a chain without a segment is discarded
	w.Apply(Flow{Stage: FlowNew, Point: *vec(100, 100)})
	w.Apply(Flow{Stage: FlowNext, Point: *vec(105, 100)})
	w.Apply(Flow{Stage: FlowEnd, Point: *vec(108, 100)})
	if len(w.objects) != 0 {
		t.Errorf("%d objects after a single-point chain", len(w.objects))
	}
	checkConsistent(t, w)
}

func TestRectangle_ReflectsIntoFreeSpace(t *testing.T) {
	w := newTestWorld(t, nil)
	o, err := w.spawnObject(Rectangle, ObjectParams{Pos: vec(400, 300), Size: vec(100, 100)})
	if err != nil {
		t.Fatal(err)
	}
	p := still(t, w, Plain, 347, 300, 50) // overlapping the left face
	p.Vel = *vec(2, 0)

	_, moved := o.apply([]*Particle{p})
	if len(moved) != 1 {
		t.Fatalf("moved = %d, want 1", len(moved))
	}
	if p.Vel[0] >= 0 {
		t.Errorf("vel = %v, want reflected", p.Vel)
	}
	if p.Pos[0] != 345 {
		t.Errorf("pos = %v, want pushed out of the left face", p.Pos)
	}
}

func TestSpawnObject_Rejects(t *testing.T) {
	w := newTestWorld(t, nil)
	tests := []struct {
		name   string
		kind   ObjectKind
		params ObjectParams
	}{
		{"negative radius", Circle, ObjectParams{Pos: vec(1, 1), Radius: ptr(-5.0)}},
		{"zero size", Rectangle, ObjectParams{Pos: vec(1, 1), Size: vec(0, 10)}},
		{"infinite position", GravityWell, ObjectParams{Pos: vec(math.Inf(1), 1)}},
		{"unknown kind", ObjectKind(99), ObjectParams{Pos: vec(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.spawnObject(tt.kind, tt.params)
			var ce *ConstructionError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want ConstructionError", err)
			}
		})
	}
	if len(w.objects) != 0 || w.nextOID != 1 {
		t.Errorf("rejected spawns left %d objects, next id %d", len(w.objects), w.nextOID)
	}
}
