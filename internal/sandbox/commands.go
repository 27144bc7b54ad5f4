package sandbox

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Command is a mutation issued by a UI layer. Commands are queued with
// World.Submit and applied between ticks.
type Command interface {
	apply(w *World) error
}

// SpawnParticle creates one particle; nil params are randomized
type SpawnParticle struct {
	Kind   ParticleKind
	Params ParticleParams
}

// SpawnObject creates one environment body
type SpawnObject struct {
	Kind   ObjectKind
	Params ObjectParams
}

// DeleteParticle removes the particle Ref, else the one under Point,
// else a random one. Filter restricts every stage to one kind.
type DeleteParticle struct {
	Point  *mgl64.Vec2
	Ref    uint64
	Filter *ParticleKind
}

// DeleteObject is DeleteParticle for environment bodies
type DeleteObject struct {
	Point  *mgl64.Vec2
	Ref    uint64
	Filter *ObjectKind
}

type UpdateVariable struct {
	Name  string
	Value float64
}

type UpdateToggle struct {
	Name  string
	Value bool
}

// Grab takes hold of the particles around Point
type Grab struct{ Point mgl64.Vec2 }

// MoveGrab moves the hold point
type MoveGrab struct{ Point mgl64.Vec2 }

// Release lets go of every grabbed particle
type Release struct{}

// ToggleWell flips the gravity well under Point
type ToggleWell struct{ Point mgl64.Vec2 }

// FlowStage is a step of building a flow chain
type FlowStage string

const (
	FlowNew  FlowStage = "new"
	FlowNext FlowStage = "next"
	FlowEnd  FlowStage = "end"
)

// ParseFlowStage validates a stage name
func ParseFlowStage(s string) (FlowStage, error) {
	switch st := FlowStage(s); st {
	case FlowNew, FlowNext, FlowEnd:
		return st, nil
	}
	return "", fmt.Errorf("stage %q: %w", s, ErrBadFlowStage)
}

// Flow builds a FlowControl body point by point
type Flow struct {
	Stage FlowStage
	Point mgl64.Vec2
}

type Pause struct{}

type Resume struct{}

// Reset clears every body and restarts the id counters
type Reset struct{}

// ResizeCanvas changes the world bounds used by edge reflection
type ResizeCanvas struct{ Width, Height float64 }

func (c SpawnParticle) apply(w *World) error {
	_, err := w.spawnParticle(c.Kind, c.Params)
	return err
}

func (c SpawnObject) apply(w *World) error {
	_, err := w.spawnObject(c.Kind, c.Params)
	return err
}

func (c DeleteParticle) apply(w *World) error {
	p := w.findParticle(c.Point, c.Ref, c.Filter)
	if p == nil {
		return ErrNoTarget
	}
	w.removeParticle(p)
	w.compactParticles()
	return nil
}

func (c DeleteObject) apply(w *World) error {
	o := w.findObject(c.Point, c.Ref, c.Filter)
	if o == nil {
		return ErrNoTarget
	}
	w.removeObject(o)
	return nil
}

func (c UpdateVariable) apply(w *World) error {
	return w.settings.SetVariable(c.Name, c.Value)
}

func (c UpdateToggle) apply(w *World) error {
	return w.settings.SetToggle(c.Name, c.Value)
}

func (c Grab) apply(w *World) error {
	return w.grab(c.Point)
}

func (c MoveGrab) apply(w *World) error {
	w.moveGrab(c.Point)
	return nil
}

func (Release) apply(w *World) error {
	w.release()
	return nil
}

func (c ToggleWell) apply(w *World) error {
	for _, o := range w.objectsAt(c.Point) {
		if o.toggle() {
			return nil
		}
	}
	return ErrNoTarget
}

func (c Flow) apply(w *World) error {
	return w.flow(c.Stage, c.Point)
}

func (Pause) apply(w *World) error {
	w.paused = true
	return nil
}

func (Resume) apply(w *World) error {
	w.paused = false
	return nil
}

func (Reset) apply(w *World) error {
	w.reset()
	return nil
}

func (c ResizeCanvas) apply(w *World) error {
	if !(c.Width > 0) || !(c.Height > 0) {
		return fmt.Errorf("resize to %vx%v: %w", c.Width, c.Height, ErrBadSettings)
	}
	w.width, w.height = c.Width, c.Height
	return nil
}
