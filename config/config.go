// Package config handles picovm.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file picovm looks for.
const FileName = "picovm.toml"

// Config represents a picovm.toml configuration.
type Config struct {
	Heap  Heap  `toml:"heap"`
	Stack Stack `toml:"stack"`
	Log   Log   `toml:"log"`
	Stats Stats `toml:"stats"`

	// Dir is the directory containing the picovm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Heap configures the collector.
type Heap struct {
	// Threshold is the live-object count that triggers a collection.
	Threshold int `toml:"threshold"`
}

// Stack configures the root stack.
type Stack struct {
	Capacity int `toml:"capacity"`
}

// Log configures logging output.
type Log struct {
	// Verbosity maps onto the commonlog verbosity scale.
	Verbosity int `toml:"verbosity"`
}

// Stats configures the collection-history recorder.
type Stats struct {
	// Database is the SQLite file collection stats are appended to.
	// Empty disables recording. Relative paths resolve against Dir.
	Database string `toml:"database"`
}

// Default returns the configuration used when no picovm.toml exists.
func Default() *Config {
	return &Config{
		Heap:  Heap{Threshold: 8},
		Stack: Stack{Capacity: 256},
	}
}

// Load parses a picovm.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if c.Heap.Threshold == 0 {
		c.Heap.Threshold = 8
	}
	if c.Stack.Capacity == 0 {
		c.Stack.Capacity = 256
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a picovm.toml file, then loads
// and returns it. Returns nil if no configuration file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if c.Heap.Threshold < 1 {
		return fmt.Errorf("heap.threshold must be at least 1, got %d", c.Heap.Threshold)
	}
	if c.Stack.Capacity < 1 {
		return fmt.Errorf("stack.capacity must be at least 1, got %d", c.Stack.Capacity)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// DatabasePath returns the absolute path of the stats database, or "" if
// recording is disabled.
func (c *Config) DatabasePath() string {
	if c.Stats.Database == "" {
		return ""
	}
	if filepath.IsAbs(c.Stats.Database) || c.Dir == "" {
		return c.Stats.Database
	}
	return filepath.Join(c.Dir, c.Stats.Database)
}
