package sandbox

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
)

// ParticleParams describes a spawn request. Nil fields are randomized
// within the configured ranges.
type ParticleParams struct {
	Pos      *mgl64.Vec2 `json:"pos,omitempty" msgpack:"pos,omitempty"`
	Vel      *mgl64.Vec2 `json:"vel,omitempty" msgpack:"vel,omitempty"`
	Mass     *float64    `json:"mass,omitempty" msgpack:"mass,omitempty"`
	Lifespan *float64    `json:"lifespan,omitempty" msgpack:"lifespan,omitempty"`
	Charge   *int        `json:"charge,omitempty" msgpack:"charge,omitempty"`
	Immortal *int        `json:"immortal,omitempty" msgpack:"immortal,omitempty"`
	Color    *color.RGBA `json:"color,omitempty" msgpack:"color,omitempty"`
}

// ObjectParams describes an environment body. Nil fields get defaults.
type ObjectParams struct {
	Pos    *mgl64.Vec2  `json:"pos,omitempty" msgpack:"pos,omitempty"`
	Size   *mgl64.Vec2  `json:"size,omitempty" msgpack:"size,omitempty"`
	Radius *float64     `json:"radius,omitempty" msgpack:"radius,omitempty"`
	Sign   *int         `json:"sign,omitempty" msgpack:"sign,omitempty"`
	Points []mgl64.Vec2 `json:"points,omitempty" msgpack:"points,omitempty"`
}

// Default object extents
const (
	defaultRectSize     = 120
	defaultZoneSize     = 100
	defaultCircleRadius = 40
	defaultWellRadius   = 25
	defaultHoleRadius   = 120
)

// spawner fills in the random parts of spawn requests. Velocity directions
// follow a perlin field so particles painted close together move together.
type spawner struct {
	rng   *rand.Rand
	noise *perlin.Perlin
}

func newSpawner(seed int64) *spawner {
	return &spawner{
		rng:   rand.New(rand.NewSource(seed)),
		noise: perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (sp *spawner) between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + sp.rng.Float64()*(hi-lo)
}

func (sp *spawner) position(w, h, margin float64) mgl64.Vec2 {
	return mgl64.Vec2{
		sp.between(margin, w-margin),
		sp.between(margin, h-margin),
	}
}

// velocity picks a direction from the noise field at pos and a random speed
func (sp *spawner) velocity(pos mgl64.Vec2, scale, max float64) mgl64.Vec2 {
	if scale <= 0 {
		scale = 1
	}
	angle := sp.noise.Noise2D(pos[0]/scale, pos[1]/scale) * 2 * math.Pi
	speed := sp.rng.Float64() * max
	return mgl64.Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed}
}

func (sp *spawner) charge() int {
	if sp.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// angle returns a random direction in radians
func (sp *spawner) angle() float64 {
	return sp.rng.Float64() * 2 * math.Pi
}
