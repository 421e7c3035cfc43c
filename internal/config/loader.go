// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
)

// Loader resolves the effective configuration.
type Loader struct {
	path string
}

// NewLoader creates a loader. path may be empty, in which case only defaults
// and the environment are consulted.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load resolves configuration with precedence ENV > file > defaults and
// validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	if l.path != "" {
		if _, err := os.Stat(l.path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", l.path, err)
		}
		fc, err := readFile(l.path)
		if err != nil {
			return nil, err
		}
		if err := applyFile(&cfg, fc); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
