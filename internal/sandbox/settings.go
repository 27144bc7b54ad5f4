package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"
)

// Constants are fixed for the lifetime of a World
type Constants struct {
	MinRadius   float64 `json:"min_radius"`
	MaxRadius   float64 `json:"max_radius"`
	RadiusRatio float64 `json:"radius_ratio"` // radius per unit of mass
	MinMass     float64 `json:"min_mass"`

	Softening         float64 `json:"softening"`
	AttractionCap     float64 `json:"attraction_cap"`
	RepulsionCap      float64 `json:"repulsion_cap"`
	InteractionRadius float64 `json:"interaction_radius"`
	WellReach         float64 `json:"well_reach"`
	BlackHoleDivisor  float64 `json:"black_hole_divisor"`
	BlackHoleCore     float64 `json:"black_hole_core"` // fraction of the hole radius that explodes particles

	SplitMassFraction  float64 `json:"split_mass_fraction"`
	SplitThreshold     float64 `json:"split_threshold"` // children heavier than this split again
	MaxSplitDepth      int     `json:"max_split_depth"`
	MaxChildren        int     `json:"max_children"`
	SplitVelocityScale float64 `json:"split_velocity_scale"`
	SplitKick          float64 `json:"split_kick"`
	ImmortalityTicks   int     `json:"immortality_ticks"`
	CooldownTicks      int     `json:"cooldown_ticks"`
	DrainDecay         float64 `json:"drain_decay"`
	DrainPerImpact     float64 `json:"drain_per_impact"`

	FlowWidth      float64 `json:"flow_width"`
	FlowMinSpacing float64 `json:"flow_min_spacing"`

	GrabRadius    float64 `json:"grab_radius"`
	GrabFrequency float64 `json:"grab_frequency"`
	GrabDamping   float64 `json:"grab_damping"`

	SpeedColorMax float64       `json:"speed_color_max"`
	NoiseScale    float64       `json:"noise_scale"`
	PruneInterval time.Duration `json:"prune_interval"`
	TickRate      int           `json:"tick_rate"`
}

// CellSize derives the grid cell edge from the radius bounds
func (c Constants) CellSize() float64 {
	return (c.MaxRadius - c.MinRadius) / 2
}

// Variables change at runtime through UpdateVariable
type Variables struct {
	Dt                 float64 `json:"dt"`
	Friction           float64 `json:"friction"`
	Restitution        float64 `json:"restitution"`
	AttractionStrength float64 `json:"attraction_strength"`
	RepulsionStrength  float64 `json:"repulsion_strength"`
	ChargeStrength     float64 `json:"charge_strength"`
	WellStrength       float64 `json:"well_strength"`
	BlackHoleStrength  float64 `json:"black_hole_strength"`
	ZoneStrength       float64 `json:"zone_strength"`
	MaxSpeed           float64 `json:"max_speed"`
	FlowStrength       float64 `json:"flow_strength"`
	MergeChance        float64 `json:"merge_chance"`
	MergeSign          float64 `json:"merge_sign"`
	MassMin            float64 `json:"mass_min"`
	MassMax            float64 `json:"mass_max"`
	SpeedMax           float64 `json:"speed_max"`
	LifespanMin        float64 `json:"lifespan_min"`
	LifespanMax        float64 `json:"lifespan_max"`
}

// Toggles switch whole behaviours on or off
type Toggles struct {
	Aging      bool `json:"aging"`
	Collisions bool `json:"collisions"`
	Merging    bool `json:"merging"`
	Splitting  bool `json:"splitting"`
	Walls      bool `json:"walls"`
	Forces     bool `json:"forces"`
}

// Settings is the configuration context handed to every update
type Settings struct {
	Const   Constants `json:"constants"`
	Vars    Variables `json:"variables"`
	Toggles Toggles   `json:"toggles"`
}

// DefaultSettings returns the stock tuning
func DefaultSettings() Settings {
	return Settings{
		Const: Constants{
			MinRadius:   2,
			MaxRadius:   30,
			RadiusRatio: 0.1,
			MinMass:     20,

			Softening:         100,
			AttractionCap:     10,
			RepulsionCap:      25,
			InteractionRadius: 150,
			WellReach:         220,
			BlackHoleDivisor:  50,
			BlackHoleCore:     0.1,

			SplitMassFraction:  0.95,
			SplitThreshold:     250,
			MaxSplitDepth:      4,
			MaxChildren:        6,
			SplitVelocityScale: 0.8,
			SplitKick:          1.5,
			ImmortalityTicks:   90,
			CooldownTicks:      15,
			DrainDecay:         0.95,
			DrainPerImpact:     0.05,

			FlowWidth:      40,
			FlowMinSpacing: 20,

			GrabRadius:    25,
			GrabFrequency: 8,
			GrabDamping:   0.9,

			SpeedColorMax: 8,
			NoiseScale:    180,
			PruneInterval: time.Second,
			TickRate:      60,
		},
		Vars: Variables{
			Dt:                 1,
			Friction:           0,
			Restitution:        0.9,
			AttractionStrength: 100,
			RepulsionStrength:  100,
			ChargeStrength:     100,
			WellStrength:       150,
			BlackHoleStrength:  400,
			ZoneStrength:       1.05,
			MaxSpeed:           12,
			FlowStrength:       0.3,
			MergeChance:        0.05,
			MergeSign:          1,
			MassMin:            40,
			MassMax:            200,
			SpeedMax:           3,
			LifespanMin:        3000,
			LifespanMax:        9000,
		},
		Toggles: Toggles{
			Aging:      true,
			Collisions: true,
			Merging:    true,
			Splitting:  true,
			Walls:      true,
			Forces:     true,
		},
	}
}

// Validate rejects constants the engine cannot run with
func (s *Settings) Validate() error {
	c := s.Const
	switch {
	case c.MinRadius <= 0 || c.MaxRadius <= c.MinRadius:
		return fmt.Errorf("radius bounds [%v,%v]: %w", c.MinRadius, c.MaxRadius, ErrBadSettings)
	case c.RadiusRatio <= 0:
		return fmt.Errorf("radius ratio %v: %w", c.RadiusRatio, ErrBadSettings)
	case c.MinMass <= 0:
		return fmt.Errorf("min mass %v: %w", c.MinMass, ErrBadSettings)
	case c.SplitMassFraction <= 0 || c.SplitMassFraction > 1:
		return fmt.Errorf("split mass fraction %v: %w", c.SplitMassFraction, ErrBadSettings)
	case c.MaxChildren < 2:
		return fmt.Errorf("max children %d: %w", c.MaxChildren, ErrBadSettings)
	case c.TickRate <= 0:
		return fmt.Errorf("tick rate %d: %w", c.TickRate, ErrBadSettings)
	}
	return nil
}

var variableFields = map[string]func(*Variables) *float64{
	"dt":                  func(v *Variables) *float64 { return &v.Dt },
	"friction":            func(v *Variables) *float64 { return &v.Friction },
	"restitution":         func(v *Variables) *float64 { return &v.Restitution },
	"attraction_strength": func(v *Variables) *float64 { return &v.AttractionStrength },
	"repulsion_strength":  func(v *Variables) *float64 { return &v.RepulsionStrength },
	"charge_strength":     func(v *Variables) *float64 { return &v.ChargeStrength },
	"well_strength":       func(v *Variables) *float64 { return &v.WellStrength },
	"black_hole_strength": func(v *Variables) *float64 { return &v.BlackHoleStrength },
	"zone_strength":       func(v *Variables) *float64 { return &v.ZoneStrength },
	"max_speed":           func(v *Variables) *float64 { return &v.MaxSpeed },
	"flow_strength":       func(v *Variables) *float64 { return &v.FlowStrength },
	"merge_chance":        func(v *Variables) *float64 { return &v.MergeChance },
	"merge_sign":          func(v *Variables) *float64 { return &v.MergeSign },
	"mass_min":            func(v *Variables) *float64 { return &v.MassMin },
	"mass_max":            func(v *Variables) *float64 { return &v.MassMax },
	"speed_max":           func(v *Variables) *float64 { return &v.SpeedMax },
	"lifespan_min":        func(v *Variables) *float64 { return &v.LifespanMin },
	"lifespan_max":        func(v *Variables) *float64 { return &v.LifespanMax },
}

var toggleFields = map[string]func(*Toggles) *bool{
	"aging":      func(t *Toggles) *bool { return &t.Aging },
	"collisions": func(t *Toggles) *bool { return &t.Collisions },
	"merging":    func(t *Toggles) *bool { return &t.Merging },
	"splitting":  func(t *Toggles) *bool { return &t.Splitting },
	"walls":      func(t *Toggles) *bool { return &t.Walls },
	"forces":     func(t *Toggles) *bool { return &t.Forces },
}

// SetVariable updates a runtime variable by its snake_case name
func (s *Settings) SetVariable(name string, value float64) error {
	field, ok := variableFields[name]
	if !ok {
		return fmt.Errorf("variable %q: %w", name, ErrUnknownSetting)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("variable %q = %v: %w", name, value, ErrBadSettings)
	}
	*field(&s.Vars) = value
	return nil
}

// Variable reads a runtime variable by name
func (s *Settings) Variable(name string) (float64, bool) {
	field, ok := variableFields[name]
	if !ok {
		return 0, false
	}
	return *field(&s.Vars), true
}

// SetToggle flips a behaviour by name
func (s *Settings) SetToggle(name string, value bool) error {
	field, ok := toggleFields[name]
	if !ok {
		return fmt.Errorf("toggle %q: %w", name, ErrUnknownSetting)
	}
	*field(&s.Toggles) = value
	return nil
}

// Toggle reads a toggle by name
func (s *Settings) Toggle(name string) (bool, bool) {
	field, ok := toggleFields[name]
	if !ok {
		return false, false
	}
	return *field(&s.Toggles), true
}

// VariableNames lists the names accepted by SetVariable, sorted
func VariableNames() []string {
	names := make([]string, 0, len(variableFields))
	for n := range variableFields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadSettings reads a JSON preset over the defaults
func LoadSettings(filename string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(filename)
	if err != nil {
		return s, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("decode %s: %w", filename, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}
