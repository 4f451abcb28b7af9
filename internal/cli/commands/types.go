package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqreamsql/internal/engine"
	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Show the dialect's type mapping",
		Long: `Show how type names reported by the database map to generic types,
and how each generic type is rendered back in DDL.`,
		Example: `  sqreamctl types
  sqreamctl types --dialect pysqream --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("dialect")
			return runTypes(cmd, name)
		},
	}
	cmd.Flags().String("dialect", engine.DefaultAdapterType, "Dialect to inspect")
	return cmd
}

func runTypes(cmd *cobra.Command, name string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	d, ok := dialect.Get(name)
	if !ok {
		return fmt.Errorf("unknown dialect %q (available: %v)", name, dialect.List())
	}

	tc := d.TypeCompiler()
	names := d.TypeNames()
	rows := make([][]any, 0, len(names))
	for _, n := range names {
		kind, _ := d.LookupType(n)
		rendered, err := tc.Process(core.SQLType{Kind: kind})
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", n, err)
		}
		rows = append(rows, []any{n, kind.String(), rendered})
	}

	return r.Table([]string{"reported", "generic", "renders_as"}, rows)
}
