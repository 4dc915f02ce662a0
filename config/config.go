// Package config handles ~/.lisprc.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds runtime tunables for the VM and CLI. Defaults match
// the fixed sizes from the language's data model, so omitting a
// config file reproduces the spec's exact behavior.
type Config struct {
	VM      VMConfig      `toml:"vm"`
	Output  OutputConfig  `toml:"output"`
	Cache   CacheConfig   `toml:"cache"`
	History HistoryConfig `toml:"history"`

	// Path is the file this config was loaded from, or "" for defaults.
	Path string `toml:"-"`
}

// VMConfig holds the VM's tunable limits. There is no frame-slots
// setting: a frame's variable slot is a bytecode symbol-pool index,
// which the instruction format fixes at one byte (0-255) regardless of
// configuration, so it is not a real tunable.
type VMConfig struct {
	StackCapacity int `toml:"stack-capacity"`
	MaxCallDepth  int `toml:"max-call-depth"`
}

type OutputConfig struct {
	Disassemble bool `toml:"disassemble"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration in effect when no rc file is
// loaded at all.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			StackCapacity: 255,
			MaxCallDepth:  512,
		},
		Output: OutputConfig{
			Disassemble: true,
		},
	}
}

// RCPath returns the default config location, ~/.lisprc.toml.
func RCPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".lisprc.toml"), nil
}

// Load parses a TOML config file at path, seeding unset fields from
// Default(). A missing file is not an error; Load returns the default
// configuration unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	cfg.Path = path

	if cfg.VM.StackCapacity == 0 {
		cfg.VM.StackCapacity = 255
	}
	if cfg.VM.MaxCallDepth == 0 {
		cfg.VM.MaxCallDepth = 512
	}

	return cfg, nil
}
