package sandbox

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// ParticleState is the render view of a particle
type ParticleState struct {
	ID       uint64       `json:"id" msgpack:"id"`
	Kind     ParticleKind `json:"kind" msgpack:"kind"`
	Pos      mgl64.Vec2   `json:"pos" msgpack:"pos"`
	Vel      mgl64.Vec2   `json:"vel" msgpack:"vel"`
	Radius   float64      `json:"radius" msgpack:"radius"`
	Mass     float64      `json:"mass" msgpack:"mass"`
	Charge   int          `json:"charge,omitempty" msgpack:"charge,omitempty"`
	Color    color.RGBA   `json:"color" msgpack:"color"`
	Grabbed  bool         `json:"grabbed,omitempty" msgpack:"grabbed,omitempty"`
	Immortal bool         `json:"immortal,omitempty" msgpack:"immortal,omitempty"`
}

// ObjectState is the render view of an environment body
type ObjectState struct {
	ID     uint64       `json:"id" msgpack:"id"`
	Kind   ObjectKind   `json:"kind" msgpack:"kind"`
	Pos    mgl64.Vec2   `json:"pos" msgpack:"pos"`
	Size   mgl64.Vec2   `json:"size" msgpack:"size"`
	Radius float64      `json:"radius" msgpack:"radius"`
	Sign   int          `json:"sign" msgpack:"sign"`
	Color  color.RGBA   `json:"color" msgpack:"color"`
	Points []mgl64.Vec2 `json:"points,omitempty" msgpack:"points,omitempty"`
}

// Snapshot is a copy of the world that is safe to hand to another goroutine
type Snapshot struct {
	Tick      uint64          `json:"tick" msgpack:"tick"`
	Width     float64         `json:"width" msgpack:"width"`
	Height    float64         `json:"height" msgpack:"height"`
	Paused    bool            `json:"paused" msgpack:"paused"`
	TPS       float64         `json:"tps" msgpack:"tps"`
	Particles []ParticleState `json:"particles" msgpack:"particles"`
	Objects   []ObjectState   `json:"objects" msgpack:"objects"`
}

// Snapshot copies the render state of every live body
func (w *World) Snapshot() *Snapshot {
	snap := &Snapshot{
		Tick:      w.tick,
		Width:     w.width,
		Height:    w.height,
		Paused:    w.paused,
		TPS:       w.rate.Rate(),
		Particles: make([]ParticleState, 0, len(w.particles)),
		Objects:   make([]ObjectState, 0, len(w.objects)),
	}
	for _, p := range w.particles {
		if p.removed {
			continue
		}
		snap.Particles = append(snap.Particles, ParticleState{
			ID:       p.id,
			Kind:     p.Kind,
			Pos:      p.Pos,
			Vel:      p.Vel,
			Radius:   p.Radius,
			Mass:     p.Mass,
			Charge:   p.Charge,
			Color:    p.Color,
			Grabbed:  p.Grabbed,
			Immortal: p.Immortal > 0,
		})
	}
	for _, o := range w.objects {
		snap.Objects = append(snap.Objects, ObjectState{
			ID:     o.id,
			Kind:   o.Kind,
			Pos:    o.Pos,
			Size:   o.Size,
			Radius: o.Radius,
			Sign:   o.Sign,
			Color:  o.Color,
			Points: append([]mgl64.Vec2(nil), o.Points...),
		})
	}
	return snap
}
