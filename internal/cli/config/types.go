// Package config provides configuration management for the sqreamctl CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and functionality.
package config

import (
	"fmt"

	sharedcfg "github.com/leapstack-labs/sqreamsql/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing
// internal/config.
type TargetConfig = sharedcfg.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	MigrationsDir string               `koanf:"migrations_dir"`
	Environment   string               `koanf:"environment"`
	Verbose       bool                 `koanf:"verbose"`
	OutputFormat  string               `koanf:"output"`
	Target        *TargetConfig        `koanf:"target"`
	Environments  map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory holding the config file, or the working
	// directory when none was found.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	MigrationsDir string        `koanf:"migrations_dir"`
	Target        *TargetConfig `koanf:"target"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultMigrationsDir = sharedcfg.DefaultMigrationsDir
	DefaultEnv           = "dev"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultSchemaForType returns the default schema for a database type.
// This is a convenience wrapper that delegates to the shared config function.
func DefaultSchemaForType(dbType string) string {
	return sharedcfg.DefaultSchemaForType(dbType)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MigrationsDir == "" {
		return fmt.Errorf("migrations_dir is required")
	}
	return sharedcfg.ValidateTarget(c.Target)
}
