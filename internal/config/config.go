// Package config carries the CLI-level configuration: where chunks live,
// how chatty the logger is and the self-encryption parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FairForge/selfcrypt/internal/crypto"
)

type Config struct {
	// ChunkDir is the root directory of the on-disk chunk store.
	ChunkDir string `yaml:"chunk_dir"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Params is the chunk-size plan configuration.
	Params crypto.Params `yaml:"params"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		ChunkDir: "chunks",
		LogLevel: "info",
		Params:   crypto.DefaultParams(),
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
