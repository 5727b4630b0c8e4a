package config

import (
	"sort"

	"github.com/san-kum/pidsim/internal/experiment"
)

type Preset struct {
	Description string
	Apply       func(*Config)
}

func gains(kp, ki, kd float64) func(*Config) {
	return func(c *Config) { c.Gains = experiment.Gains{Kp: kp, Ki: ki, Kd: kd} }
}

var Presets = map[string]Preset{
	"default": {
		Description: "Kp=5 Ki=2 Kd=0.5 against the step profile",
		Apply:       func(*Config) {},
	},
	"aggressive": {
		Description: "fast rise with visible overshoot",
		Apply:       gains(20, 8, 2),
	},
	"sluggish": {
		Description: "low gains, slow but calm",
		Apply:       gains(1, 0.2, 0.8),
	},
	"pd": {
		Description: "no integral action",
		Apply:       gains(5, 0, 1),
	},
	"oscillatory": {
		Description: "integral-heavy tuning close to the stability limit",
		Apply:       gains(2, 2.5, 0.5),
	},
	"ramp": {
		Description: "default gains tracking r(t) = t",
		Apply:       func(c *Config) { c.Input = experiment.Ramp.String() },
	},
	"sine": {
		Description: "default gains tracking 0.5 sin(0.8 t)",
		Apply:       func(c *Config) { c.Input = experiment.Sinusoidal.String() },
	},
	"saturated": {
		Description: "sampled loop with the actuator clamped to |u| <= 5",
		Apply: func(c *Config) {
			c.Method = string(experiment.MethodSampled)
			c.Gains = experiment.Gains{Kp: 20, Ki: 8, Kd: 2}
			c.Limits = LimitConfig{Integral: 2, Output: 5}
		},
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

// ApplyPreset overlays the named preset on cfg in place.
func ApplyPreset(cfg *Config, name string) bool {
	p, ok := Presets[name]
	if ok {
		p.Apply(cfg)
	}
	return ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
