package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config controls the semantics a VM applies to property and identifier
// operations.
type Config struct {
	// Strict makes writes to read-only properties, creation of properties on
	// non-extensible objects, deletion of permanent properties, and writes to
	// accessors lacking a setter raise TypeError instead of being ignored.
	Strict bool `yaml:"strict"`
	// StrictBinding makes assignment to an undeclared identifier raise
	// UnresolvedReference instead of creating it on the top-level scope.
	StrictBinding bool `yaml:"strict_binding"`
	// DynamicScope enables substitution of the top-level scope by the VM's
	// dynamic top scope during identifier resolution.
	DynamicScope bool `yaml:"dynamic_scope"`
	// ShadowInheritedWrites makes a write that finds a writable data property
	// on a prototype create an own property on the receiver instead of
	// updating the prototype's.
	ShadowInheritedWrites bool `yaml:"shadow_inherited_writes"`
	// GuardCycles makes prototype and scope walks track visited objects and
	// stop at a repeat. Chains cannot be made cyclic through SetPrototype or
	// SetParentScope regardless, so this only matters when such calls race.
	GuardCycles bool `yaml:"guard_cycles"`
	// InitialCapacity is the bucket count of a new property table. It must be
	// a power of two no less than 4. Zero means 4.
	InitialCapacity int `yaml:"initial_capacity"`

	// Log configures logging for programs that install a backend.
	Log LogConfig `yaml:"log"`
}

// LogConfig holds logging options. The object model itself only obtains
// loggers; these settings are applied by the embedding program.
type LogConfig struct {
	// Verbosity maps to a maximum level as in commonlog.Configure.
	Verbosity int `yaml:"verbosity"`
	// Path is a log file path. Empty means standard error.
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{InitialCapacity: 4}
}

// ParseConfig parses a YAML configuration. Unset fields take their default
// values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("scriptobj: parse config: %w", err)
	}
	if cfg.InitialCapacity == 0 {
		cfg.InitialCapacity = 4
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("scriptobj: cannot read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration's values are usable.
func (c Config) Validate() error {
	n := c.InitialCapacity
	if n != 0 && (n < 4 || n&(n-1) != 0) {
		return fmt.Errorf("scriptobj: initial_capacity must be a power of two no less than 4, not %d", n)
	}
	return nil
}
