package config

import "sort"

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	// spawn cloud larger than the box, most particles start outside it
	"original": func() *Config {
		c := DefaultConfig()
		c.Spawn.Span = 500
		return c
	},
	"gravity-only": func() *Config {
		c := DefaultConfig()
		c.Interaction.Enabled = false
		return c
	},
	"dense": func() *Config {
		c := DefaultConfig()
		c.Particles = 2000
		c.Bounds = BoundsConfig{Width: 80, Height: 80, Depth: 80}
		c.Spawn.Span = 80
		c.Run.Dt = 0.05
		return c
	},
	"zero-g": func() *Config {
		c := DefaultConfig()
		c.Gravity = 0
		c.Particles = 300
		c.Spawn.VelocitySpan = 20
		return c
	},
	"bouncy": func() *Config {
		c := DefaultConfig()
		c.Restitution = 1
		c.Particles = 200
		c.Interaction.Enabled = false
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
