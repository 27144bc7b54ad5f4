package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func baseForce(mode Mode) Force {
	return Force{Mode: mode, Source: 100, Strength: 1, Softening: 1, Cap: 0, Dt: 1}
}

// TestPull_Direction tests that attraction points at the source and repulsion away from it
func TestPull_Direction(t *testing.T) {
	src := mgl64.Vec2{100, 100}
	dst := mgl64.Vec2{130, 100}

	dv := Pull(src, dst, 10, baseForce(Attract))
	if dv[0] >= 0 || !near(dv[1], 0, eps) {
		t.Errorf("attraction should point to -x, got %v", dv)
	}

	dv = Pull(src, dst, 10, baseForce(Repulse))
	if dv[0] <= 0 || !near(dv[1], 0, eps) {
		t.Errorf("repulsion should point to +x, got %v", dv)
	}
}

// TestPull_Law tests the magnitude against the closed form
func TestPull_Law(t *testing.T) {
	f := Force{Mode: Attract, Source: 50, Strength: 2, Softening: 4, Dt: 0.5}
	src := mgl64.Vec2{0, 0}
	dst := mgl64.Vec2{3, 4}

	d2 := 25.0
	mag := 50 * 2 / (d2 * math.Sqrt(d2+4))
	want := mgl64.Vec2{-3, -4}.Mul(mag / 8 * 0.5)

	got := Pull(src, dst, 8, f)
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestPull_CapAndDivisor tests the magnitude ceiling and the fixed divisor
func TestPull_CapAndDivisor(t *testing.T) {
	f := baseForce(Attract)
	f.Source = 1e6
	f.Cap = 0.5
	f.Divisor = 2

	dv := Pull(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, 1e9, f)
	// capped magnitude 0.5 over divisor 2 times |d| = 1
	if !near(dv[0], -0.25, eps) {
		t.Errorf("expected capped dv.x -0.25, got %v", dv)
	}
}

// TestPull_ImmortalDamping tests that immortality divides the velocity change
func TestPull_ImmortalDamping(t *testing.T) {
	f := baseForce(Attract)
	plain := Pull(mgl64.Vec2{0, 0}, mgl64.Vec2{10, 0}, 5, f)
	f.Immortal = 4
	damped := Pull(mgl64.Vec2{0, 0}, mgl64.Vec2{10, 0}, 5, f)
	if !near(damped[0]*4, plain[0], eps) {
		t.Errorf("expected 4x damping, plain %v damped %v", plain, damped)
	}
}

// TestPull_Degenerate tests the neutral result for coincident or invalid input
func TestPull_Degenerate(t *testing.T) {
	p := mgl64.Vec2{5, 5}
	if dv := Pull(p, p, 1, baseForce(Attract)); dv != (mgl64.Vec2{}) {
		t.Errorf("coincident points should give zero, got %v", dv)
	}
	if dv := Pull(mgl64.Vec2{math.NaN(), 0}, p, 1, baseForce(Attract)); dv != (mgl64.Vec2{}) {
		t.Errorf("NaN source should give zero, got %v", dv)
	}
	if dv := Pull(mgl64.Vec2{0, 0}, p, 0, baseForce(Attract)); dv != (mgl64.Vec2{}) {
		t.Errorf("zero mass target should give zero, got %v", dv)
	}
}

// TestInCore tests the explode radius check
func TestInCore(t *testing.T) {
	src := mgl64.Vec2{0, 0}
	if !InCore(src, 50, mgl64.Vec2{4.9, 0}, 0.1) {
		t.Errorf("4.9 should be inside 0.1*50")
	}
	if InCore(src, 50, mgl64.Vec2{5.1, 0}, 0.1) {
		t.Errorf("5.1 should be outside 0.1*50")
	}
}

// TestCollide_HeadOnEqualMass tests that equal masses swap velocities
func TestCollide_HeadOnEqualMass(t *testing.T) {
	a := &Kinetic{Pos: mgl64.Vec2{100, 100}, Vel: mgl64.Vec2{10, 0}, Mass: 100, Radius: 10}
	b := &Kinetic{Pos: mgl64.Vec2{120, 100}, Vel: mgl64.Vec2{-10, 0}, Mass: 100, Radius: 10}

	impact, hit := Collide(a, b, RepositionThis, 1)
	if !hit {
		t.Fatalf("touching discs should collide")
	}
	if !near(impact, 20, eps) {
		t.Errorf("expected impact 20, got %v", impact)
	}
	if !a.Vel.ApproxEqualThreshold(mgl64.Vec2{-10, 0}, 1e-9) || !b.Vel.ApproxEqualThreshold(mgl64.Vec2{10, 0}, 1e-9) {
		t.Errorf("expected swapped velocities, got a=%v b=%v", a.Vel, b.Vel)
	}
}

// TestCollide_ConservesMomentum tests momentum conservation for random elastic contacts
func TestCollide_ConservesMomentum(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		a := &Kinetic{
			Pos:    mgl64.Vec2{0, 0},
			Vel:    mgl64.Vec2{rng.Float64()*20 - 10, rng.Float64()*20 - 10},
			Mass:   1 + rng.Float64()*200,
			Radius: 10,
		}
		ang := rng.Float64() * 2 * math.Pi
		b := &Kinetic{
			Pos:    mgl64.Vec2{math.Cos(ang) * 15, math.Sin(ang) * 15},
			Vel:    mgl64.Vec2{rng.Float64()*20 - 10, rng.Float64()*20 - 10},
			Mass:   1 + rng.Float64()*200,
			Radius: 10,
		}
		before := a.Vel.Mul(a.Mass).Add(b.Vel.Mul(b.Mass))
		keBefore := a.Mass*a.Vel.Dot(a.Vel) + b.Mass*b.Vel.Dot(b.Vel)

		Collide(a, b, RepositionOther, 1)

		after := a.Vel.Mul(a.Mass).Add(b.Vel.Mul(b.Mass))
		if !before.ApproxEqualThreshold(after, 1e-7) {
			t.Fatalf("momentum changed: %v -> %v", before, after)
		}
		keAfter := a.Mass*a.Vel.Dot(a.Vel) + b.Mass*b.Vel.Dot(b.Vel)
		if !near(keBefore, keAfter, 1e-6*keBefore+1e-9) {
			t.Fatalf("kinetic energy changed: %v -> %v", keBefore, keAfter)
		}
	}
}

// TestCollide_Separating tests that receding bodies are only repositioned
func TestCollide_Separating(t *testing.T) {
	a := &Kinetic{Pos: mgl64.Vec2{0, 0}, Vel: mgl64.Vec2{-1, 0}, Mass: 1, Radius: 10}
	b := &Kinetic{Pos: mgl64.Vec2{15, 0}, Vel: mgl64.Vec2{1, 0}, Mass: 1, Radius: 10}

	impact, hit := Collide(a, b, RepositionOther, 1)
	if !hit || impact != 0 {
		t.Errorf("expected contact without impulse, got hit=%v impact=%v", hit, impact)
	}
	if a.Vel != (mgl64.Vec2{-1, 0}) || b.Vel != (mgl64.Vec2{1, 0}) {
		t.Errorf("velocities changed: a=%v b=%v", a.Vel, b.Vel)
	}
	if !near(b.Pos[0], 20, eps) {
		t.Errorf("expected other pushed to 20, got %v", b.Pos)
	}
}

// TestCollide_Coincident tests the no-op on identical centres
func TestCollide_Coincident(t *testing.T) {
	a := &Kinetic{Pos: mgl64.Vec2{3, 3}, Vel: mgl64.Vec2{1, 0}, Mass: 1, Radius: 2}
	b := &Kinetic{Pos: mgl64.Vec2{3, 3}, Vel: mgl64.Vec2{-1, 0}, Mass: 1, Radius: 2}
	Collide(a, b, RepositionBoth, 1)
	if a.Pos != (mgl64.Vec2{3, 3}) || a.Vel != (mgl64.Vec2{1, 0}) || !Finite(b.Vel) {
		t.Errorf("coincident collision changed state: a=%+v b=%+v", a, b)
	}
}

// TestReflectEdges tests the world boundary scenario
func TestReflectEdges(t *testing.T) {
	k := &Kinetic{Pos: mgl64.Vec2{0, 50}, Vel: mgl64.Vec2{-3, 0}, Mass: 1, Radius: 5}
	impact, hit := ReflectEdges(k, 800, 600, 0.8)
	if !hit {
		t.Fatalf("expected an edge hit")
	}
	if !near(k.Pos[0], 5, eps) || !near(k.Vel[0], 3*0.8, eps) {
		t.Errorf("expected x=5 vx=2.4, got %v %v", k.Pos, k.Vel)
	}
	if !near(impact, 3, eps) {
		t.Errorf("expected impact 3, got %v", impact)
	}

	k = &Kinetic{Pos: mgl64.Vec2{400, 598}, Vel: mgl64.Vec2{0, 2}, Mass: 1, Radius: 5}
	ReflectEdges(k, 800, 600, 1)
	if !near(k.Pos[1], 595, eps) || !near(k.Vel[1], -2, eps) {
		t.Errorf("expected y=595 vy=-2, got %v %v", k.Pos, k.Vel)
	}
}

// TestReflectRect_Faces tests face selection by size-scaled penetration
func TestReflectRect_Faces(t *testing.T) {
	center := mgl64.Vec2{100, 100}
	size := mgl64.Vec2{200, 20}

	// Enters the long top face: y axis wins even though |dx| > |dy|
	k := &Kinetic{Pos: mgl64.Vec2{150, 88}, Vel: mgl64.Vec2{1, 4}, Mass: 1, Radius: 3}
	if _, hit := ReflectRect(k, center, size, 1); !hit {
		t.Fatalf("expected hit on top face")
	}
	if !near(k.Pos[1], 87, eps) || !near(k.Vel[1], -4, eps) || !near(k.Vel[0], 1, eps) {
		t.Errorf("top face: got pos %v vel %v", k.Pos, k.Vel)
	}

	// Enters the short right face
	k = &Kinetic{Pos: mgl64.Vec2{202, 100}, Vel: mgl64.Vec2{-5, 0}, Mass: 1, Radius: 3}
	ReflectRect(k, center, size, 0.5)
	if !near(k.Pos[0], 203, eps) || !near(k.Vel[0], 2.5, eps) {
		t.Errorf("right face: got pos %v vel %v", k.Pos, k.Vel)
	}

	k = &Kinetic{Pos: mgl64.Vec2{400, 400}, Vel: mgl64.Vec2{1, 1}, Mass: 1, Radius: 3}
	if _, hit := ReflectRect(k, center, size, 1); hit {
		t.Errorf("far disc should not hit")
	}
}

// TestReflectCircle tests push-out and normal reflection
func TestReflectCircle(t *testing.T) {
	k := &Kinetic{Pos: mgl64.Vec2{12, 0}, Vel: mgl64.Vec2{-2, 1}, Mass: 1, Radius: 5}
	impact, hit := ReflectCircle(k, mgl64.Vec2{0, 0}, 10, 1)
	if !hit || !near(impact, 2, eps) {
		t.Fatalf("expected hit with impact 2, got %v %v", hit, impact)
	}
	if !near(k.Pos[0], 15, eps) || !near(k.Vel[0], 2, eps) || !near(k.Vel[1], 1, eps) {
		t.Errorf("got pos %v vel %v", k.Pos, k.Vel)
	}
}

// TestWrap tests toroidal folding for negative and overflowing positions
func TestWrap(t *testing.T) {
	k := &Kinetic{Pos: mgl64.Vec2{-10, 610}}
	Wrap(k, 800, 600)
	if !near(k.Pos[0], 790, eps) || !near(k.Pos[1], 10, eps) {
		t.Errorf("got %v", k.Pos)
	}
}

// TestPull_RangeFalloff tests that a ranged source is silent at its range
func TestPull_RangeFalloff(t *testing.T) {
	f := baseForce(Attract)
	f.Cap = 10
	f.Range = 40
	f.Divisor = 50

	core := Pull(mgl64.Vec2{0, 0}, mgl64.Vec2{4, 0}, 1, f)
	edge := Pull(mgl64.Vec2{0, 0}, mgl64.Vec2{40, 0}, 1, f)
	if edge.Len() != 0 {
		t.Errorf("expected zero pull at range, got %v", edge)
	}
	if core.Len() == 0 {
		t.Errorf("expected a pull near the core")
	}
}
