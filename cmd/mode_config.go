package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/allocsim/sim"
)

// RunConfig is the on-disk configuration for the initial mode flags and trace collection.
// Mode names absent from the file keep their current value.
type RunConfig struct {
	Modes map[string]bool `yaml:"modes" toml:"modes"`
	Trace TraceSection    `yaml:"trace" toml:"trace"`
}

// TraceSection configures the trace collector. Empty fields mean "not set".
type TraceSection struct {
	Level          string `yaml:"level" toml:"level"`
	StackCacheSize uint32 `yaml:"stack_cache_size" toml:"stack_cache_size"`
}

// LoadRunConfig parses a YAML (.yaml/.yml) or TOML (.toml) configuration file.
// Unknown keys are rejected in both formats.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}

	var cfg RunConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing run config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing run config: unknown keys %v", undecoded)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing run config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every mode name is recognized.
func (c *RunConfig) Validate() error {
	for _, name := range sortedModeNames(c.Modes) {
		if _, err := sim.ParseFlag(name); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the configured modes into m.
func (c *RunConfig) Apply(m *sim.ModeController) error {
	for _, name := range sortedModeNames(c.Modes) {
		f, err := sim.ParseFlag(name)
		if err != nil {
			return err
		}
		m.Set(f, c.Modes[name])
	}
	return nil
}

// ApplyOverrides applies "name=bool" assignments given on the command line.
func ApplyOverrides(m *sim.ModeController, overrides []string) error {
	for _, o := range overrides {
		name, value, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("mode override %q: expected name=true|false", o)
		}
		f, err := sim.ParseFlag(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "on", "1":
			m.Set(f, true)
		case "false", "off", "0":
			m.Set(f, false)
		default:
			return fmt.Errorf("mode override %q: value must be true or false", o)
		}
	}
	return nil
}

func sortedModeNames(modes map[string]bool) []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
