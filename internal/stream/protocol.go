// Package stream serves a running sandbox over websockets: msgpack snapshots
// out, JSON commands in.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/olivierh59500/particle-sandbox-go/internal/sandbox"
)

var (
	ErrUnknownOp    = errors.New("unknown op")
	ErrMissingField = errors.New("missing field")
)

// Message is a command sent by a client
type Message struct {
	Op     string          `json:"op"`
	Type   string          `json:"type,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Name   string          `json:"name,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"` // number for variables, bool for toggles
	Point  *mgl64.Vec2     `json:"point,omitempty"`
	Ref    uint64          `json:"ref,omitempty"`
	Stage  string          `json:"stage,omitempty"`
	Width  float64         `json:"width,omitempty"`
	Height float64         `json:"height,omitempty"`
}

// Counts is pushed as a text frame whenever the body counts change
type Counts struct {
	Particles int     `json:"particles"`
	Objects   int     `json:"objects"`
	TPS       float64 `json:"tps"`
}

// Decode parses one client message into a command
func Decode(data []byte) (sandbox.Command, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return m.Command()
}

// Command maps the message onto a sandbox command
func (m *Message) Command() (sandbox.Command, error) {
	switch m.Op {
	case "spawn_particle":
		kind, err := sandbox.ParseParticleKind(m.Type)
		if err != nil {
			return nil, err
		}
		var params sandbox.ParticleParams
		if err := m.params(&params); err != nil {
			return nil, err
		}
		return sandbox.SpawnParticle{Kind: kind, Params: params}, nil

	case "spawn_object":
		kind, err := sandbox.ParseObjectKind(m.Type)
		if err != nil {
			return nil, err
		}
		var params sandbox.ObjectParams
		if err := m.params(&params); err != nil {
			return nil, err
		}
		return sandbox.SpawnObject{Kind: kind, Params: params}, nil

	case "delete_particle":
		cmd := sandbox.DeleteParticle{Point: m.Point, Ref: m.Ref}
		if m.Type != "" {
			kind, err := sandbox.ParseParticleKind(m.Type)
			if err != nil {
				return nil, err
			}
			cmd.Filter = &kind
		}
		return cmd, nil

	case "delete_object":
		cmd := sandbox.DeleteObject{Point: m.Point, Ref: m.Ref}
		if m.Type != "" {
			kind, err := sandbox.ParseObjectKind(m.Type)
			if err != nil {
				return nil, err
			}
			cmd.Filter = &kind
		}
		return cmd, nil

	case "update_variable":
		var v float64
		if err := m.value(&v); err != nil {
			return nil, err
		}
		return sandbox.UpdateVariable{Name: m.Name, Value: v}, nil

	case "update_toggle":
		var v bool
		if err := m.value(&v); err != nil {
			return nil, err
		}
		return sandbox.UpdateToggle{Name: m.Name, Value: v}, nil

	case "grab", "move_grab", "toggle_well", "flow":
		if m.Point == nil {
			return nil, fmt.Errorf("%s point: %w", m.Op, ErrMissingField)
		}
		switch m.Op {
		case "grab":
			return sandbox.Grab{Point: *m.Point}, nil
		case "move_grab":
			return sandbox.MoveGrab{Point: *m.Point}, nil
		case "toggle_well":
			return sandbox.ToggleWell{Point: *m.Point}, nil
		}
		stage, err := sandbox.ParseFlowStage(m.Stage)
		if err != nil {
			return nil, err
		}
		return sandbox.Flow{Stage: stage, Point: *m.Point}, nil

	case "release":
		return sandbox.Release{}, nil
	case "pause":
		return sandbox.Pause{}, nil
	case "resume":
		return sandbox.Resume{}, nil
	case "reset":
		return sandbox.Reset{}, nil
	case "resize":
		return sandbox.ResizeCanvas{Width: m.Width, Height: m.Height}, nil
	}
	return nil, fmt.Errorf("op %q: %w", m.Op, ErrUnknownOp)
}

func (m *Message) params(dst any) error {
	if len(m.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Params, dst); err != nil {
		return fmt.Errorf("%s params: %w", m.Op, err)
	}
	return nil
}

func (m *Message) value(dst any) error {
	if len(m.Value) == 0 {
		return fmt.Errorf("%s value: %w", m.Op, ErrMissingField)
	}
	if err := json.Unmarshal(m.Value, dst); err != nil {
		return fmt.Errorf("%s value: %w", m.Op, err)
	}
	return nil
}
