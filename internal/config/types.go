// Package config provides shared configuration types for sqreamsql.
// This package is decoupled from CLI concerns and can be used by any tool
// that needs to load a target from sqream.yaml.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // sqream (or its alias pysqream)

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Additional connection URL query options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (cluster, service, use_ssl,
	// driver_names, slow_query_threshold, log_statements)
	Params map[string]any `koanf:"params"`
}

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "public".
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "public"
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	return ValidateTarget(t)
}

// ValidateTarget checks t against the adapter registry.
func ValidateTarget(t *TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d is out of range", t.Port)
	}
	return nil
}

// ToAdapterConfig converts the target into the adapter's connection config.
func (t *TargetConfig) ToAdapterConfig() *adapter.Config {
	return &adapter.Config{
		Type:     strings.ToLower(t.Type),
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// ProjectConfig holds the minimal configuration needed by tools other than
// the CLI.
type ProjectConfig struct {
	MigrationsDir string        `koanf:"migrations_dir"`
	Target        *TargetConfig `koanf:"target"`
}
