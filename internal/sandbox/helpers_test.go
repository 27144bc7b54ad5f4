package sandbox

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/physics"
)

func ptr[T any](v T) *T { return &v }

func vec(x, y float64) *mgl64.Vec2 { return &mgl64.Vec2{x, y} }

// newTestWorld builds an 800x600 world on a fake clock that advances one
// tick per read
func newTestWorld(t *testing.T, mutate func(*Settings)) *World {
	t.Helper()
	s := DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	clock := time.Unix(0, 0)
	w, err := NewWorld(s, Options{
		Width:  800,
		Height: 600,
		Seed:   1,
		Now: func() time.Time {
			clock = clock.Add(time.Second / 60)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

// still spawns a motionless particle
func still(t *testing.T, w *World, kind ParticleKind, x, y, mass float64) *Particle {
	t.Helper()
	p, err := w.spawnParticle(kind, ParticleParams{
		Pos:      vec(x, y),
		Vel:      vec(0, 0),
		Mass:     ptr(mass),
		Lifespan: ptr(5000.0),
	})
	if err != nil {
		t.Fatalf("spawn %v: %v", kind, err)
	}
	return p
}

// checkConsistent verifies that list, index and grid agree
func checkConsistent(t *testing.T, w *World) {
	t.Helper()
	if len(w.particles) != len(w.particleIndex) || len(w.particles) != w.particleGrid.Len() {
		t.Fatalf("particles: list=%d index=%d grid=%d", len(w.particles), len(w.particleIndex), w.particleGrid.Len())
	}
	for _, p := range w.particles {
		if p.removed {
			t.Fatalf("removed particle %d still listed", p.id)
		}
		if w.particleIndex[p.id] != p {
			t.Fatalf("particle %d not indexed", p.id)
		}
		if !w.particleGrid.Has(p.id) {
			t.Fatalf("particle %d not bucketed", p.id)
		}
		if !physics.Finite(p.Pos) || !physics.Finite(p.Vel) {
			t.Fatalf("particle %d not finite: pos=%v vel=%v", p.id, p.Pos, p.Vel)
		}
		if p.id >= w.nextPID {
			t.Fatalf("particle %d at or above next id %d", p.id, w.nextPID)
		}
	}
	if len(w.objects) != len(w.objectIndex) || len(w.objects) != w.objectGrid.Len() {
		t.Fatalf("objects: list=%d index=%d grid=%d", len(w.objects), len(w.objectIndex), w.objectGrid.Len())
	}
	for _, o := range w.objects {
		if w.objectIndex[o.id] != o || !w.objectGrid.Has(o.id) {
			t.Fatalf("object %d not registered", o.id)
		}
	}
}
