package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/sqreamsql/internal/cli/output"
	"github.com/leapstack-labs/sqreamsql/internal/engine"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
	"github.com/spf13/cobra"
)

// compiledInsert is the structured form of a compiled INSERT.
type compiledInsert struct {
	SQL    string `json:"sql" yaml:"sql"`
	Params []any  `json:"params" yaml:"params"`
	Rows   int    `json:"rows" yaml:"rows"`
	Multi  bool   `json:"multi" yaml:"multi"`
}

// insertResult is reported after executing an INSERT.
type insertResult struct {
	compiledInsert `yaml:",inline"`
	RowCount       int64 `json:"row_count" yaml:"row_count"`
	InsertedPK     []any `json:"inserted_primary_key" yaml:"inserted_primary_key"`
}

// NewInsertCommand creates the insert command.
func NewInsertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Compile (and optionally run) an INSERT",
		Long: `Compile an INSERT statement for the target dialect.

Rows are given as a JSON array of arrays. However many rows are given, the
SQream dialect renders a single placeholder tuple and sends every row's
values as one flat parameter list for the driver's bulk path.

With --execute the statement runs against the configured target.`,
		Example: `  # Show the SQL for a two-row insert
  sqreamctl insert --table public.events --columns id,name --rows '[[1,"a"],[2,"b"]]'

  # Run it
  sqreamctl insert --table events --columns id --rows '[[1]]' --execute`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInsert(cmd)
		},
	}

	cmd.Flags().String("table", "", "Target table, optionally schema-qualified")
	cmd.Flags().StringSlice("columns", nil, "Column names")
	cmd.Flags().String("rows", "", "Rows as a JSON array of arrays")
	cmd.Flags().Bool("execute", false, "Execute the statement against the target")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func runInsert(cmd *cobra.Command) error {
	table, _ := cmd.Flags().GetString("table")
	columns, _ := cmd.Flags().GetStringSlice("columns")
	rowsJSON, _ := cmd.Flags().GetString("rows")
	execute, _ := cmd.Flags().GetBool("execute")

	rows, err := parseRows(rowsJSON, len(columns))
	if err != nil {
		return err
	}
	ins := &dialect.Insert{
		Table:   dialect.ParseTableName(table),
		Columns: columns,
		Rows:    dialect.Rows(rows...),
	}

	if !execute {
		cmdCtx := NewCommandContextWithoutEngine(cmd)
		d, ok := dialect.Get(cmdCtx.Cfg.Target.Type)
		if !ok {
			d, _ = dialect.Get(engine.DefaultAdapterType)
		}
		compiled, err := d.CompileInsert(ins)
		if err != nil {
			return fmt.Errorf("failed to compile insert: %w", err)
		}
		return renderInsert(cmdCtx.Renderer, describeCompiled(compiled, len(rows)))
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	compiled, err := cmdCtx.Engine.Dialect().CompileInsert(ins)
	if err != nil {
		return fmt.Errorf("failed to compile insert: %w", err)
	}

	conn, err := cmdCtx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	res, err := conn.Execute(cmd.Context(), compiled)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()

	return renderInsert(cmdCtx.Renderer, insertResult{
		compiledInsert: describeCompiled(compiled, len(rows)),
		RowCount:       res.RowCount(),
		InsertedPK:     res.InsertedPrimaryKey(),
	})
}

func describeCompiled(c *dialect.Compiled, rows int) compiledInsert {
	params := c.Params
	if params == nil {
		params = []any{}
	}
	return compiledInsert{SQL: c.SQL, Params: params, Rows: rows, Multi: c.Multi}
}

// parseRows decodes a JSON array of arrays, checking each row's width.
// Integral numbers become int64 and all other numbers float64.
func parseRows(s string, width int) ([][]any, error) {
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var rows [][]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("invalid --rows: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid --rows: trailing data after array")
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
		for j, v := range row {
			n, ok := v.(json.Number)
			if !ok {
				continue
			}
			if iv, err := n.Int64(); err == nil {
				row[j] = iv
				continue
			}
			fv, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("row %d value %d: %w", i, j, err)
			}
			row[j] = fv
		}
	}
	return rows, nil
}

func renderInsert(r *output.Renderer, v any) error {
	var ci compiledInsert
	var res *insertResult
	switch x := v.(type) {
	case compiledInsert:
		ci = x
	case insertResult:
		ci, res = x.compiledInsert, &x
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(v)
	case output.ModeYAML:
		return r.YAML(v)
	case output.ModeMarkdown:
		r.Println(output.FormatCodeBlock("sql", ci.SQL))
		r.Println(output.FormatKeyValue("params", fmt.Sprint(ci.Params)))
		r.Println(output.FormatKeyValue("rows", fmt.Sprint(ci.Rows)))
		if res != nil {
			r.Println(output.FormatKeyValue("row_count", fmt.Sprint(res.RowCount)))
			r.Println(output.FormatKeyValue("inserted_primary_key", fmt.Sprint(res.InsertedPK)))
		}
	default:
		r.Println(ci.SQL)
		r.Printf("params: %v\n", ci.Params)
		if res != nil {
			r.Printf("rows affected: %d\n", res.RowCount)
			if len(res.InsertedPK) > 0 {
				r.Printf("inserted primary key: %v\n", res.InsertedPK)
			}
		}
	}
	return nil
}
