// Package config provides the JSON run configuration of the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armemu/cache"
	"github.com/sarchlab/armemu/emu"
)

// Config holds the parameters of one emulation run.
type Config struct {
	// EntryPoint is the address execution starts at. For ELF images it
	// is overridden by the file's entry point unless ForceEntry is set.
	EntryPoint uint32 `json:"entry_point"`

	// ForceEntry makes EntryPoint win over an ELF entry point.
	ForceEntry bool `json:"force_entry"`

	// LoadAddress is where raw ROM images are copied.
	LoadAddress uint32 `json:"load_address"`

	// InitialMode is the processor mode at reset, e.g. "svc" or "usr".
	InitialMode string `json:"initial_mode"`

	// MaxInstructions stops the run after this many instructions.
	// 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// HaltOnSelfBranch stops the run at a branch to itself.
	HaltOnSelfBranch bool `json:"halt_on_self_branch"`

	// DecodeCacheSets and DecodeCacheWays size the decode cache. A zero
	// set count disables it.
	DecodeCacheSets int `json:"decode_cache_sets"`
	DecodeCacheWays int `json:"decode_cache_ways"`

	// LogLevel is a logrus level name.
	LogLevel string `json:"log_level"`
}

// Default returns the default configuration: reset in SVC mode at
// address 0 with a 64x4 decode cache.
func Default() *Config {
	dc := cache.DefaultConfig()
	return &Config{
		EntryPoint:       0,
		LoadAddress:      0,
		InitialMode:      emu.ModeSVC.String(),
		MaxInstructions:  0,
		HaltOnSelfBranch: true,
		DecodeCacheSets:  dc.Sets,
		DecodeCacheWays:  dc.Ways,
		LogLevel:         logrus.InfoLevel.String(),
	}
}

// Load reads a configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := emu.ParseMode(c.InitialMode); err != nil {
		return fmt.Errorf("initial_mode: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.DecodeCacheSets < 0 {
		return fmt.Errorf("decode_cache_sets must be >= 0")
	}
	if c.DecodeCacheSets > 0 && c.DecodeCacheWays <= 0 {
		return fmt.Errorf("decode_cache_ways must be > 0 when the decode cache is enabled")
	}
	if c.EntryPoint&3 != 0 {
		return fmt.Errorf("entry_point %#x is not word aligned", c.EntryPoint)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// EmulatorOptions translates the configuration into emulator options.
// The returned decode cache is nil when caching is disabled.
func (c *Config) EmulatorOptions(logger logrus.FieldLogger) ([]emu.EmulatorOption, *cache.DecodeCache, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	mode, _ := emu.ParseMode(c.InitialMode)
	opts := []emu.EmulatorOption{
		emu.WithMode(mode),
		emu.WithMaxInstructions(c.MaxInstructions),
		emu.WithHaltOnSelfBranch(c.HaltOnSelfBranch),
	}
	if logger != nil {
		opts = append(opts, emu.WithLogger(logger))
	}

	var dc *cache.DecodeCache
	if c.DecodeCacheSets > 0 {
		dc = cache.New(cache.Config{Sets: c.DecodeCacheSets, Ways: c.DecodeCacheWays})
		opts = append(opts, emu.WithDecodeCache(dc))
	}

	return opts, dc, nil
}
