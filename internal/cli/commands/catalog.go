package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqreamsql/internal/cli/output"
	"github.com/leapstack-labs/sqreamsql/internal/engine"
	"github.com/spf13/cobra"
)

// withConnection opens a connection for the duration of fn.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	conn, err := cmdCtx.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, conn, cmdCtx.Renderer)
}

// targetSchema is the schema from the loaded target, set by --schema or the
// config file.
func targetSchema() string {
	if t := getConfig().Target; t != nil {
		return t.Schema
	}
	return ""
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the target database",
		Long: `List the tables recorded in the SQream catalog.

The catalog listing is not filtered by schema.`,
		Example: `  sqreamctl tables
  sqreamctl tables --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				names, err := conn.TableNames(ctx, targetSchema())
				if err != nil {
					return err
				}
				return renderNames(r, "table", names)
			})
		},
	}
}

// NewSchemasCommand creates the schemas command.
func NewSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas in the target database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				names, err := conn.SchemaNames(ctx)
				if err != nil {
					return err
				}
				return renderNames(r, "schema", names)
			})
		},
	}
}

// NewHasTableCommand creates the has-table command.
func NewHasTableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "has-table <table>",
		Short: "Report whether a table exists",
		Long: `Report whether a table exists. The name is matched exactly against the
catalog listing.`,
		Example: `  sqreamctl has-table events`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				ok, err := conn.HasTable(ctx, args[0], targetSchema())
				if err != nil {
					return err
				}
				return r.Value("exists", ok)
			})
		},
	}
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Show a table's columns",
		Long: `Show the columns of a table, parsed from the DDL the server reports for
it. Types are mapped to their generic form; the reported type is shown as is.`,
		Example: `  sqreamctl columns events
  sqreamctl columns events --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				cols, err := conn.Columns(ctx, args[0], targetSchema())
				if err != nil {
					return err
				}
				rows := make([][]any, len(cols))
				for i, c := range cols {
					rows[i] = []any{c.Name, c.Type.String(), c.RawType, c.Nullable}
				}
				return r.Table([]string{"name", "type", "raw_type", "nullable"}, rows)
			})
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Describe a table's columns and constraints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				info, err := conn.Describe(ctx, args[0], targetSchema())
				if err != nil {
					return err
				}
				return renderTableInfo(r, info)
			})
		},
	}
}

// NewServerVersionCommand creates the server-version command.
func NewServerVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server-version",
		Short: "Show the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, conn *engine.Connection, r *output.Renderer) error {
				v, err := conn.ServerVersion(ctx)
				if err != nil {
					return err
				}
				return r.Value("server_version", v)
			})
		},
	}
}

func renderNames(r *output.Renderer, header string, names []string) error {
	rows := make([][]any, len(names))
	for i, n := range names {
		rows[i] = []any{n}
	}
	return r.Table([]string{header}, rows)
}

func renderTableInfo(r *output.Renderer, info *engine.TableInfo) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeYAML:
		return r.YAML(info)
	}

	r.Header(1, fmt.Sprintf("%s.%s", info.Schema, info.Name))
	rows := make([][]any, len(info.Columns))
	for i, c := range info.Columns {
		rows[i] = []any{c.Name, c.Type.String(), c.Nullable}
	}
	if err := r.Table([]string{"name", "type", "nullable"}, rows); err != nil {
		return err
	}
	if len(info.PrimaryKey.Columns) > 0 {
		r.Println(output.FormatKeyValue("primary key", fmt.Sprint(info.PrimaryKey.Columns)))
	}
	return nil
}
