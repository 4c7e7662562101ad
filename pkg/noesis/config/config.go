// Package config loads engine configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/noesis/pkg/noesis/internalerr"
)

// Config holds the tunable parameters of a reasoning engine instance.
type Config struct {
	// DataDir is where the flat-file store keeps facts.json and
	// rules.json. Ignored when DatabasePath is set.
	DataDir string `yaml:"data_dir"`

	// DatabasePath selects the SQLite store instead of flat files.
	DatabasePath string `yaml:"database_path"`

	MaxInferenceDepth int `yaml:"max_inference_depth"`
	MaxIterations     int `yaml:"max_iterations"`
	CacheSize         int `yaml:"cache_size"`

	// Workers bounds concurrent reasoning calls through the engine.
	Workers int `yaml:"workers"`

	// EnableSolver turns on the Prolog-backed consistency and
	// constraint-solving capability.
	EnableSolver bool `yaml:"enable_solver"`

	// SeedAxioms installs the built-in transitivity / modus ponens /
	// modus tollens rules at startup.
	SeedAxioms bool `yaml:"seed_axioms"`
}

// Default returns the engine defaults.
func Default() Config {
	return Config{
		DataDir:           "data/reasoning",
		MaxInferenceDepth: 10,
		MaxIterations:     100,
		CacheSize:         1000,
		Workers:           4,
		EnableSolver:      true,
		SeedAxioms:        true,
	}
}

// Load reads a YAML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.DataDir == "" && c.DatabasePath == "" {
		return fmt.Errorf("%w: either data_dir or database_path must be set", internalerr.ErrInvalidConfig)
	}
	if c.MaxInferenceDepth < 0 {
		return fmt.Errorf("%w: max_inference_depth must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}
