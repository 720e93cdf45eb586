package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Repository is the OCFL storage root to index.
	Repository string
	// DomainsPath is an HCL file or a directory of HCL domain definitions.
	DomainsPath string

	SearchHost     string
	SearchUsername string
	SearchPassword string
	// DryRun indexes into memory instead of the search engine.
	DryRun bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("invalid workers %d: must be at least 1", cfg.Workers)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}

// validateIndex checks the settings only indexing needs.
func (c *Config) validateIndex() error {
	if c.Repository == "" {
		return errors.New("repository is a required configuration field and cannot be empty")
	}
	if c.SearchHost == "" && !c.DryRun {
		return errors.New("search host is required unless this is a dry run")
	}
	return nil
}
