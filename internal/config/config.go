package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"strobe/internal/sched"
)

// FileName is the configuration manifest looked up near a design.
const FileName = "strobe.toml"

// Schedule carries the [schedule] section.
type Schedule struct {
	// ConvergeLimit bounds every convergence loop. Must be positive.
	ConvergeLimit uint32 `toml:"converge_limit"`
	// SplitThreshold spills procedures above this node count; 0 turns
	// splitting off.
	SplitThreshold uint64 `toml:"split_threshold"`
	// ProtectIds keeps design identifiers out of generated debug code.
	ProtectIds bool `toml:"protect_ids"`
	// XInitialEdge makes edge sensitivities count the first evaluation
	// as a transition.
	XInitialEdge bool `toml:"x_initial_edge"`
}

// Output carries the [output] section.
type Output struct {
	// Stats collects and prints scheduling measurements.
	Stats bool `toml:"stats"`
	// Timings prints the per-phase timing report.
	Timings bool `toml:"timings"`
}

// Config is the effective strobe configuration: defaults, overlaid by
// strobe.toml, overlaid by command-line flags.
type Config struct {
	Schedule Schedule `toml:"schedule"`
	Output   Output   `toml:"output"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Schedule: Schedule{ConvergeLimit: sched.DefaultConvergeLimit},
	}
}

// Load reads a strobe.toml and merges it over the defaults. Unknown keys
// are rejected so typos surface instead of silently keeping defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate(path string) error {
	if c.Schedule.ConvergeLimit == 0 {
		return fmt.Errorf("%s: [schedule].converge_limit must be positive", path)
	}
	return nil
}

// Find walks up from startDir to locate a strobe.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest strobe.toml above startDir, or the defaults
// when none exists.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Overrides carries command-line values that win over file settings. Nil
// fields keep the file/default value.
type Overrides struct {
	ConvergeLimit  *uint32
	SplitThreshold *uint64
	ProtectIds     *bool
	XInitialEdge   *bool
	Stats          *bool
	Timings        *bool
}

// Apply overlays the overrides and returns the result.
func (c Config) Apply(o Overrides) Config {
	if o.ConvergeLimit != nil {
		c.Schedule.ConvergeLimit = *o.ConvergeLimit
	}
	if o.SplitThreshold != nil {
		c.Schedule.SplitThreshold = *o.SplitThreshold
	}
	if o.ProtectIds != nil {
		c.Schedule.ProtectIds = *o.ProtectIds
	}
	if o.XInitialEdge != nil {
		c.Schedule.XInitialEdge = *o.XInitialEdge
	}
	if o.Stats != nil {
		c.Output.Stats = *o.Stats
	}
	if o.Timings != nil {
		c.Output.Timings = *o.Timings
	}
	return c
}

// CacheKey renders the schedule-relevant settings in a canonical form for
// cache keying. Output settings do not affect generated code and stay out.
func (c Config) CacheKey() string {
	return fmt.Sprintf("converge_limit=%d;split_threshold=%d;protect_ids=%t;x_initial_edge=%t",
		c.Schedule.ConvergeLimit, c.Schedule.SplitThreshold,
		c.Schedule.ProtectIds, c.Schedule.XInitialEdge)
}

// SchedConfig maps the configuration onto the scheduling pass options.
func (c Config) SchedConfig() sched.Config {
	return sched.Config{
		ConvergeLimit:  c.Schedule.ConvergeLimit,
		SplitThreshold: c.Schedule.SplitThreshold,
		ProtectIds:     c.Schedule.ProtectIds,
		XInitialEdge:   c.Schedule.XInitialEdge,
		Stats:          c.Output.Stats,
	}
}
