package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	_ "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFromDir(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		cfg, err := LoadFromDir(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("defaults applied", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ConfigFileName, "target:\n  type: sqream\n  host: sq1\n")

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		require.NotNil(t, cfg.Target)
		assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)
		assert.Equal(t, "sq1", cfg.Target.Host)
		assert.Equal(t, 5000, cfg.Target.Port)
		assert.Equal(t, "master", cfg.Target.Database)
		assert.Equal(t, "public", cfg.Target.Schema)
	})

	t.Run("yml alternate name with params", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ConfigFileNameAlt, `migrations_dir: db/migrations
target:
  type: pysqream
  port: 3108
  params:
    cluster: true
    service: etl
`)

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "db/migrations", cfg.MigrationsDir)
		assert.Equal(t, 3108, cfg.Target.Port)
		assert.Equal(t, true, cfg.Target.Params["cluster"])
		assert.Equal(t, "etl", cfg.Target.Params["service"])
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ConfigFileName, "target: [\n")
		_, err := LoadFromDir(dir)
		require.Error(t, err)
	})
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	writeConfig(t, root, ConfigFileName, "target:\n  type: sqream\n")

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Empty(t, FindProjectRoot(t.TempDir()))
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  *TargetConfig
		wantErr string
	}{
		{name: "valid", target: &TargetConfig{Type: "sqream"}},
		{name: "alias", target: &TargetConfig{Type: "PySQream"}},
		{name: "nil", target: nil, wantErr: "target is required"},
		{name: "missing type", target: &TargetConfig{}, wantErr: "target type is required"},
		{name: "unknown type", target: &TargetConfig{Type: "oracle"}, wantErr: "unknown adapter type"},
		{name: "bad port", target: &TargetConfig{Type: "sqream", Port: 70000}, wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnknownTargetIsAdapterError(t *testing.T) {
	err := ValidateTarget(&TargetConfig{Type: "oracle"})
	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

func TestToAdapterConfig(t *testing.T) {
	target := &TargetConfig{
		Type:     "SQream",
		Host:     "h",
		Port:     5001,
		Database: "db",
		User:     "u",
		Password: "p",
		Schema:   "s",
		Options:  map[string]string{"timeout": "5"},
		Params:   map[string]any{"cluster": true},
	}

	assert.Equal(t, &adapter.Config{
		Type:     "sqream",
		Host:     "h",
		Port:     5001,
		Database: "db",
		Username: "u",
		Password: "p",
		Schema:   "s",
		Options:  map[string]string{"timeout": "5"},
		Params:   map[string]any{"cluster": true},
	}, target.ToAdapterConfig())
}

func TestDefaultSchemaForType(t *testing.T) {
	assert.Equal(t, "public", DefaultSchemaForType("sqream"))
	assert.Equal(t, "public", DefaultSchemaForType("unknown"))
}
