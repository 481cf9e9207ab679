// Package config loads the TOML configuration file read by the golf
// command line tool: execution limits and trace output, with the rest
// of the machine's behavior fixed by the image being run.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the golf CLI's on-disk configuration.
type Config struct {
	Execution struct {
		MaxCycles uint64 `toml:"max_cycles"`
		HeapSize  int    `toml:"heap_size"`
		StackSize int    `toml:"stack_size"`
	} `toml:"execution"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
	} `toml:"trace"`
}

// Default returns the configuration golf runs with when no config
// file is present or named on the command line.
func Default() *Config {
	cfg := &Config{}
	cfg.Execution.MaxCycles = 0
	cfg.Execution.HeapSize = 4096
	cfg.Execution.StackSize = 4096
	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.log"
	return cfg
}

// Load reads and merges path over the default configuration. A
// missing file is not an error: Load returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %q", path)
	}
	return cfg, nil
}

// DefaultPath returns the config file golf looks for when none is
// given explicitly: golf.toml in the current directory.
func DefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return "golf.toml"
	}
	return filepath.Join(wd, "golf.toml")
}
