package sandbox

import (
	"fmt"
	"strings"
)

// ParticleKind is the discriminant of a particle variant
type ParticleKind uint8

const (
	Plain ParticleKind = iota
	Attractor
	Repulser
	Charged
	Merger
	particleKindCount
)

var particleKindNames = [particleKindCount]string{
	Plain:     "particle",
	Attractor: "attractor",
	Repulser:  "repulser",
	Charged:   "charged",
	Merger:    "merger",
}

func (k ParticleKind) String() string {
	if k < particleKindCount {
		return particleKindNames[k]
	}
	return fmt.Sprintf("ParticleKind(%d)", uint8(k))
}

// ParseParticleKind maps a type name to its kind. Empty means Plain.
func ParseParticleKind(name string) (ParticleKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Plain, nil
	}
	for k, n := range particleKindNames {
		if n == name {
			return ParticleKind(k), nil
		}
	}
	return 0, fmt.Errorf("particle %q: %w", name, ErrUnknownKind)
}

// ParticleKinds lists every particle kind in order
func ParticleKinds() []ParticleKind {
	out := make([]ParticleKind, particleKindCount)
	for i := range out {
		out[i] = ParticleKind(i)
	}
	return out
}

// ObjectKind is the discriminant of an environment body
type ObjectKind uint8

const (
	Rectangle ObjectKind = iota
	Circle
	GravityWell
	BlackHole
	Accelerator
	Decelerator
	FlowControl
	objectKindCount
)

var objectKindNames = [objectKindCount]string{
	Rectangle:   "rectangle",
	Circle:      "circle",
	GravityWell: "gravitywell",
	BlackHole:   "blackhole",
	Accelerator: "accelerator",
	Decelerator: "decelerator",
	FlowControl: "flow",
}

func (k ObjectKind) String() string {
	if k < objectKindCount {
		return objectKindNames[k]
	}
	return fmt.Sprintf("ObjectKind(%d)", uint8(k))
}

// ParseObjectKind maps a type name to its kind
func ParseObjectKind(name string) (ObjectKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range objectKindNames {
		if n == name {
			return ObjectKind(k), nil
		}
	}
	return 0, fmt.Errorf("object %q: %w", name, ErrUnknownKind)
}

// ObjectKinds lists every object kind in order
func ObjectKinds() []ObjectKind {
	out := make([]ObjectKind, objectKindCount)
	for i := range out {
		out[i] = ObjectKind(i)
	}
	return out
}
