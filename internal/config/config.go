package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
)

const (
	DefaultDt          = 0.1
	DefaultFrames      = 600
	DefaultSampleEvery = 10
)

type Config struct {
	Particles   int               `yaml:"particles" toml:"particles"`
	Gravity     float32           `yaml:"gravity" toml:"gravity"`
	Restitution float32           `yaml:"restitution" toml:"restitution"`
	Seed        int64             `yaml:"seed" toml:"seed"`
	Interaction InteractionConfig `yaml:"interaction" toml:"interaction"`
	Bounds      BoundsConfig      `yaml:"bounds" toml:"bounds"`
	Spawn       SpawnConfig       `yaml:"spawn" toml:"spawn"`
	Run         RunConfig         `yaml:"run" toml:"run"`
}

type InteractionConfig struct {
	Enabled  bool    `yaml:"enabled" toml:"enabled"`
	Radius   float32 `yaml:"radius" toml:"radius"`
	Strength float32 `yaml:"strength" toml:"strength"`
}

type BoundsConfig struct {
	Width  float32 `yaml:"width" toml:"width"`
	Height float32 `yaml:"height" toml:"height"`
	Depth  float32 `yaml:"depth" toml:"depth"`
}

type SpawnConfig struct {
	Span         float32 `yaml:"span" toml:"span"`
	VelocitySpan float32 `yaml:"velocity_span" toml:"velocity_span"`
}

// RunConfig drives headless runs; the simulation itself never reads it.
type RunConfig struct {
	Dt          float32 `yaml:"dt" toml:"dt"`
	Frames      int     `yaml:"frames" toml:"frames"`
	SampleEvery int     `yaml:"sample_every" toml:"sample_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles:   sim.DefaultParticleCount,
		Gravity:     sim.DefaultGravity,
		Restitution: physics.DefaultRestitution,
		Interaction: InteractionConfig{
			Enabled:  true,
			Radius:   physics.DefaultInteractionRadius,
			Strength: physics.DefaultInteractionStrength,
		},
		Bounds: BoundsConfig{
			Width:  sim.DefaultExtent,
			Height: sim.DefaultExtent,
			Depth:  sim.DefaultExtent,
		},
		Spawn: SpawnConfig{
			Span:         sim.DefaultSpawnSpan,
			VelocitySpan: sim.DefaultVelocitySpan,
		},
		Run: RunConfig{
			Dt:          DefaultDt,
			Frames:      DefaultFrames,
			SampleEvery: DefaultSampleEvery,
		},
	}
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Sim converts the file layout into a simulation configuration.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		ParticleCount:       c.Particles,
		Gravity:             c.Gravity,
		EnableInteraction:   c.Interaction.Enabled,
		InteractionRadius:   c.Interaction.Radius,
		InteractionStrength: c.Interaction.Strength,
		Restitution:         c.Restitution,
		Width:               c.Bounds.Width,
		Height:              c.Bounds.Height,
		Depth:               c.Bounds.Depth,
		SpawnSpan:           c.Spawn.Span,
		VelocitySpan:        c.Spawn.VelocitySpan,
		Seed:                c.Seed,
	}
}

func (c *Config) Validate() error {
	if err := c.Sim().Validate(); err != nil {
		return err
	}
	if !(c.Run.Dt > 0) {
		return fmt.Errorf("run.dt must be positive, got %f", c.Run.Dt)
	}
	if c.Run.Frames <= 0 {
		return fmt.Errorf("run.frames must be positive, got %d", c.Run.Frames)
	}
	if c.Run.SampleEvery <= 0 {
		return fmt.Errorf("run.sample_every must be positive, got %d", c.Run.SampleEvery)
	}
	return nil
}

// Clone returns an independent copy, so callers can tweak presets.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
