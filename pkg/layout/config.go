package layout

import (
	"math"
	"time"

	"github.com/matzehuels/hopgraph/pkg/errors"
)

// Config holds the force and cooling parameters of the simulation.
type Config struct {
	// Link force: spring towards LinkDistance along every edge.
	LinkDistance float64 `toml:"link_distance" json:"link_distance"`
	LinkStrength float64 `toml:"link_strength" json:"link_strength"`

	// Charge force between all node pairs. Negative repels.
	ChargeStrength float64 `toml:"charge_strength" json:"charge_strength"`

	// Radial force pulling free nodes towards RadialRadius from the origin.
	RadialRadius   float64 `toml:"radial_radius" json:"radial_radius"`
	RadialStrength float64 `toml:"radial_strength" json:"radial_strength"`

	// Collision: nodes closer than the sum of their radii plus padding are
	// pushed apart.
	CollisionPadding  float64 `toml:"collision_padding" json:"collision_padding"`
	CollisionStrength float64 `toml:"collision_strength" json:"collision_strength"`

	// VelocityDecay is the fraction of velocity lost per tick.
	VelocityDecay float64 `toml:"velocity_decay" json:"velocity_decay"`
	// AlphaMin is the cooling floor. Alpha decays from 1 to AlphaMin over
	// the tick limit, the smaller of TickBudget and the frames in Cooldown.
	AlphaMin   float64 `toml:"alpha_min" json:"alpha_min"`
	TickBudget int     `toml:"tick_budget" json:"tick_budget"`

	// EnergyThreshold is the total kinetic energy under which a tick counts
	// as stable. StableTicks consecutive stable ticks settle the simulation.
	EnergyThreshold float64 `toml:"energy_threshold" json:"energy_threshold"`
	StableTicks     int     `toml:"stable_ticks" json:"stable_ticks"`

	// Cooldown is the simulated time after which the simulation settles.
	// At the defaults it ends the run at 120 frames, before TickBudget.
	Cooldown time.Duration `toml:"cooldown" json:"cooldown"`
	// FrameDuration is the dt a tick is normalized to. A tick with
	// dt == FrameDuration integrates one full step.
	FrameDuration time.Duration `toml:"frame_duration" json:"frame_duration"`

	// Epsilon is the minimum distance used in inverse-distance terms.
	Epsilon float64 `toml:"epsilon" json:"epsilon"`
	// MaxSpeed caps the per-tick displacement of a node.
	MaxSpeed float64 `toml:"max_speed" json:"max_speed"`
	// MaxScale caps the viewport zoom for tiny graphs.
	MaxScale float64 `toml:"max_scale" json:"max_scale"`

	// InitialRadius scales the phyllotaxis spiral transit nodes are seeded on.
	InitialRadius float64 `toml:"initial_radius" json:"initial_radius"`
}

// DefaultConfig returns the default simulation parameters.
func DefaultConfig() Config {
	return Config{
		LinkDistance:      35,
		LinkStrength:      0.9,
		ChargeStrength:    -100,
		RadialRadius:      40,
		RadialStrength:    0.7,
		CollisionPadding:  3,
		CollisionStrength: 1,
		VelocityDecay:     0.4,
		AlphaMin:          0.001,
		TickBudget:        300,
		EnergyThreshold:   0.05,
		StableTicks:       10,
		Cooldown:          2 * time.Second,
		FrameDuration:     time.Second / 60,
		Epsilon:           1,
		MaxSpeed:          100,
		MaxScale:          8,
		InitialRadius:     10,
	}
}

// Validate checks that the parameters can drive a stable simulation.
func (c Config) Validate() error {
	switch {
	case c.LinkDistance < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "link distance must not be negative")
	case c.LinkStrength < 0 || c.LinkStrength > 2:
		return errors.New(errors.ErrCodeInvalidConfig, "link strength must be within [0, 2]")
	case c.RadialRadius < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "radial radius must not be negative")
	case c.RadialStrength < 0 || c.RadialStrength > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "radial strength must be within [0, 1]")
	case c.CollisionPadding < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "collision padding must not be negative")
	case c.CollisionStrength < 0 || c.CollisionStrength > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "collision strength must be within [0, 1]")
	case c.VelocityDecay <= 0 || c.VelocityDecay >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "velocity decay must be within (0, 1)")
	case c.AlphaMin <= 0 || c.AlphaMin >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "alpha min must be within (0, 1)")
	case c.TickBudget <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "tick budget must be positive")
	case c.EnergyThreshold < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "energy threshold must not be negative")
	case c.StableTicks <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "stable ticks must be positive")
	case c.Cooldown <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "cooldown must be positive")
	case c.FrameDuration <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "frame duration must be positive")
	case c.Epsilon <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "epsilon must be positive")
	case c.MaxSpeed <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "max speed must be positive")
	case c.MaxScale <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "max scale must be positive")
	}
	return nil
}

// cooldownFrames is Cooldown in frames, rounded so that a FrameDuration
// truncated to whole nanoseconds does not add a tick.
func (c Config) cooldownFrames() float64 {
	return max(math.Round(float64(c.Cooldown)/float64(c.FrameDuration)), 1)
}

// tickLimit is the number of full-frame ticks after which the simulation
// settles at the latest.
func (c Config) tickLimit() int {
	return min(c.TickBudget, int(c.cooldownFrames()))
}

// alphaDecay returns the per-tick decay that takes alpha from 1 to
// AlphaMin in tickLimit ticks.
func (c Config) alphaDecay() float64 {
	return 1 - math.Pow(c.AlphaMin, 1/float64(c.tickLimit()))
}
