// Package commands implements the sqreamctl subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqreamsql/internal/cli/config"
	"github.com/leapstack-labs/sqreamsql/internal/cli/output"
	intconfig "github.com/leapstack-labs/sqreamsql/internal/config"
	"github.com/leapstack-labs/sqreamsql/internal/engine"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/spf13/cobra"
)

// driverOverride replaces the adapter's driver lookup. Tests set it to a
// scripted driver.
var driverOverride dbapi.Driver

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	cmdCtx.Engine = eng
	return cmdCtx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Connect opens a connection through the engine. The caller closes it.
func (c *CommandContext) Connect(ctx context.Context) (*engine.Connection, error) {
	return c.Engine.Connect(ctx)
}

// getConfig returns the loaded configuration, or the defaults when the root
// command did not load one.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	target := &config.TargetConfig{}
	intconfig.ApplyTargetDefaults(target)
	return &config.Config{
		MigrationsDir: config.DefaultMigrationsDir,
		Environment:   config.DefaultEnv,
		OutputFormat:  config.DefaultOutput,
		Target:        target,
	}
}

// createEngine builds an engine for the configured target.
func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	target := cfg.Target
	if target == nil {
		target = &config.TargetConfig{}
		intconfig.ApplyTargetDefaults(target)
	}

	return engine.New(engine.Config{
		AdapterConfig: target.ToAdapterConfig(),
		Logger:        logger,
		Driver:        driverOverride,
	})
}
