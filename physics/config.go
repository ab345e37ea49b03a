package physics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
)

// TickSeconds is the fixed simulation step.
const TickSeconds = 0.02

const (
	DefaultMaxGJKIterations = 64
	DefaultMaxEPAIterations = 64
	DefaultEPATolerance     = 1e-4
	// DefaultDepthInflation over-corrects penetration so that a resolved pair
	// does not re-penetrate on the next tick.
	DefaultDepthInflation = 1.02
	// DefaultBounceTicks scales the derived bounce threshold: contacts closing
	// slower than this many ticks of gravity do not bounce.
	DefaultBounceTicks = 15
)

// Config is the tunable surface of a World.
type Config struct {
	Gravity          mgl64.Vec3 `toml:"gravity"`
	TickSeconds      float64    `toml:"tick_seconds"`
	MaxGJKIterations int        `toml:"max_gjk_iterations"`
	MaxEPAIterations int        `toml:"max_epa_iterations"`
	EPATolerance     float64    `toml:"epa_tolerance"`
	DepthInflation   float64    `toml:"depth_inflation"`
	// BounceThreshold is the closing speed below which contacts do not
	// bounce. Zero derives it from gravity and the tick length.
	BounceThreshold  float64    `toml:"bounce_threshold"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		TickSeconds:      TickSeconds,
		MaxGJKIterations: DefaultMaxGJKIterations,
		MaxEPAIterations: DefaultMaxEPAIterations,
		EPATolerance:     DefaultEPATolerance,
		DepthInflation:   DefaultDepthInflation,
	}
}

// TickDuration returns the tick length as a time.Duration.
func (c Config) TickDuration() time.Duration {
	return time.Duration(c.TickSeconds * float64(time.Second))
}

// RestingSpeed returns BounceThreshold, or DefaultBounceTicks ticks worth of
// gravity when it is zero.
func (c Config) RestingSpeed() float64 {
	if c.BounceThreshold > 0 {
		return c.BounceThreshold
	}
	return DefaultBounceTicks * c.Gravity.Len() * c.TickSeconds
}

func (c Config) Validate() error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("physics config: tick_seconds must be positive, got %v", c.TickSeconds)
	}
	if c.MaxGJKIterations <= 0 {
		return fmt.Errorf("physics config: max_gjk_iterations must be positive, got %d", c.MaxGJKIterations)
	}
	if c.MaxEPAIterations <= 0 {
		return fmt.Errorf("physics config: max_epa_iterations must be positive, got %d", c.MaxEPAIterations)
	}
	if c.EPATolerance <= 0 {
		return fmt.Errorf("physics config: epa_tolerance must be positive, got %v", c.EPATolerance)
	}
	if c.BounceThreshold < 0 {
		return fmt.Errorf("physics config: bounce_threshold must not be negative, got %v", c.BounceThreshold)
	}
	if c.DepthInflation < 1 {
		return fmt.Errorf("physics config: depth_inflation must be >= 1, got %v", c.DepthInflation)
	}
	return nil
}

// LoadConfig decodes a TOML document on top of DefaultConfig, so keys missing
// from the document keep their default values.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("physics config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}
