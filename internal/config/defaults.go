package config

// Default configuration values.
const (
	DefaultType          = "sqream"
	DefaultHost          = "localhost"
	DefaultPort          = 5000
	DefaultDatabase      = "master"
	DefaultMigrationsDir = "migrations"
)

// ApplyDefaults applies default values to a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = DefaultMigrationsDir
	}
}

// ApplyDefaults applies default values to a TargetConfig.
func (t *TargetConfig) ApplyDefaults() {
	ApplyTargetDefaults(t)
}

// ApplyTargetDefaults fills in the connection defaults of a SQream target.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultType
	}
	if t.Host == "" {
		t.Host = DefaultHost
	}
	if t.Port == 0 {
		t.Port = DefaultPort
	}
	if t.Database == "" {
		t.Database = DefaultDatabase
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
}
