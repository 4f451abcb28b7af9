package commands

import (
	"database/sql"
	"fmt"
	"os"
	"slices"

	"github.com/leapstack-labs/sqreamsql/internal/cli/output"
	"github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"
	"github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream/migrate"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the target",
		Long: `Apply versioned SQL migrations from the migrations directory.

Migrations are goose-style files (NNNNN_name.sql with -- +goose Up/Down
annotations). Applied versions are recorded in a version table created with
SQream DB column types.`,
		Example: `  sqreamctl migrate status
  sqreamctl migrate up
  sqreamctl migrate down --table schema_migrations`,
	}

	cmd.PersistentFlags().String("table", "", "Version table name (default: goose_db_version)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  runMigrateDown,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateStatus,
		},
	)
	return cmd
}

// openMigrationDB opens a database/sql handle for the target, using the
// first of the adapter's driver names that is registered.
func openMigrationDB(cmdCtx *CommandContext) (*sql.DB, error) {
	params, err := sqream.ParseParams(cmdCtx.Cfg.Target.Params)
	if err != nil {
		return nil, err
	}

	registered := sql.Drivers()
	for _, name := range params.Drivers() {
		if !slices.Contains(registered, name) {
			continue
		}
		cmdCtx.Logger.Debug("opening migration database", "driver", name)
		return sql.Open(name, cmdCtx.Engine.DSN())
	}
	return nil, fmt.Errorf("no database/sql driver registered for %v", params.Drivers())
}

func newMigrationProvider(cmd *cobra.Command) (*goose.Provider, *CommandContext, func(), error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := openMigrationDB(cmdCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	table, _ := cmd.Flags().GetString("table")
	provider, err := migrate.NewProvider(db, os.DirFS(cmdCtx.Cfg.MigrationsDir),
		migrate.WithTableName(table),
		migrate.WithLogger(cmdCtx.Logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("failed to load migrations from %s: %w", cmdCtx.Cfg.MigrationsDir, err)
	}
	return provider, cmdCtx, func() { _ = provider.Close() }, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	provider, cmdCtx, cleanup, err := newMigrationProvider(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := provider.Up(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return renderMigrationResults(cmdCtx.Renderer, results)
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	provider, cmdCtx, cleanup, err := newMigrationProvider(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := provider.Down(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return renderMigrationResults(cmdCtx.Renderer, []*goose.MigrationResult{result})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	provider, cmdCtx, cleanup, err := newMigrationProvider(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	statuses, err := provider.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}

	rows := make([][]any, 0, len(statuses))
	for _, s := range statuses {
		applied := ""
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []any{s.Source.Version, s.Source.Path, string(s.State), applied})
	}
	return cmdCtx.Renderer.Table([]string{"version", "path", "state", "applied_at"}, rows)
}

func renderMigrationResults(r *output.Renderer, results []*goose.MigrationResult) error {
	if len(results) == 0 && r.EffectiveMode() == output.ModeText {
		r.Success("no migrations to apply")
		return nil
	}
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		rows = append(rows, []any{res.Source.Version, res.Source.Path, res.Direction, res.Duration.String()})
	}
	return r.Table([]string{"version", "path", "direction", "duration"}, rows)
}
