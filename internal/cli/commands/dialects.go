package commands

import (
	"slices"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered dialects and adapters",
		Long: `List every SQL dialect and database adapter compiled into sqreamctl.

Aliases resolve to the same dialect as their target name.`,
		Example: `  sqreamctl dialects
  sqreamctl dialects --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDialects(cmd)
		},
	}
}

func runDialects(cmd *cobra.Command) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	adapters := adapter.ListAdapters()
	names := dialect.List()
	rows := make([][]any, 0, len(names))
	for _, name := range names {
		d, _ := dialect.Get(name)
		rows = append(rows, []any{
			name,
			d.Name,
			d.DefaultSchema,
			slices.Contains(adapters, name),
		})
	}

	return r.Table([]string{"name", "dialect", "default_schema", "adapter"}, rows)
}
