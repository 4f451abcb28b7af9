package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqreamsql/internal/cli/config"
	clitest "github.com/leapstack-labs/sqreamsql/internal/cli/testutil"
	"github.com/leapstack-labs/sqreamsql/internal/testutil"
	_ "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsDDL = "create table \"public\".\"events\" (\n" +
	"\"id\" int not null,\n" +
	"\"label\" nvarchar(20) null\n" +
	")\nwith\n  chunk_size = 1000000\n  ;\n"

// catalogResults scripts the catalog queries the SQream adapter issues.
func catalogResults() map[string]testutil.FakeResult {
	return map[string]testutil.FakeResult{
		"select * from sqream_catalog.tables": {
			Columns: []string{"database_name", "table_id", "schema_name", "table_name"},
			Rows: [][]any{
				{"master", int64(1), "public", "events"},
				{"master", int64(2), "public", "users"},
			},
		},
		"select get_schemas()": {
			Columns: []string{"schema_name"},
			Rows:    [][]any{{"public"}, {"staging"}},
		},
		"select get_sqream_server_version()": {
			Columns: []string{"version"},
			Rows:    [][]any{{"v2022.1.6"}},
		},
		"select get_ddl('events')": {
			Columns: []string{"ddl"},
			Rows:    [][]any{{eventsDDL}},
		},
	}
}

// setupCommandTest resets the loaded config and points the engine at conn.
// The output format is forced with a loaded config when output is set.
func setupCommandTest(t *testing.T, conn *testutil.FakeConn, outputFormat string) {
	t.Helper()
	t.Chdir(t.TempDir())
	config.ResetConfig()
	driverOverride = &testutil.FakeDriver{Conn: conn}
	t.Cleanup(func() {
		driverOverride = nil
		config.ResetConfig()
	})

	if outputFormat != "" {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("output", "", "")
		require.NoError(t, flags.Parse([]string{"--output", outputFormat}))
		_, err := config.LoadConfig("", flags)
		require.NoError(t, err)
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantOut []string
	}{
		{name: "default version", version: "0.1.0", wantOut: []string{"sqreamctl v0.1.0", "SQream"}},
		{name: "dev version", version: "dev", wantOut: []string{"sqreamctl vdev"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewVersionCommand(tt.version))
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd *cobra.Command
		use string
	}{
		{NewDialectsCommand(), "dialects"},
		{NewTypesCommand(), "types"},
		{NewInsertCommand(), "insert"},
		{NewRenderDDLCommand(), "render-ddl <file>"},
		{NewTablesCommand(), "tables"},
		{NewSchemasCommand(), "schemas"},
		{NewHasTableCommand(), "has-table <table>"},
		{NewColumnsCommand(), "columns <table>"},
		{NewDescribeCommand(), "describe <table>"},
		{NewServerVersionCommand(), "server-version"},
		{NewMigrateCommand(), "migrate"},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
		})
	}

	ins := NewInsertCommand()
	for _, flag := range []string{"table", "columns", "rows", "execute"} {
		assert.NotNil(t, ins.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	mig := NewMigrateCommand()
	assert.NotNil(t, mig.PersistentFlags().Lookup("table"))
	var subs []string
	for _, c := range mig.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status"}, subs)
}

func TestDialectsCommand(t *testing.T) {
	setupCommandTest(t, nil, "")

	out, err := execute(t, NewDialectsCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "| sqream | sqream | public | true |")
	assert.Contains(t, out, "| pysqream | sqream | public | true |")
}

func TestTypesCommand(t *testing.T) {
	setupCommandTest(t, nil, "json")

	out, err := execute(t, NewTypesCommand())
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	byName := map[string]map[string]string{}
	for _, r := range rows {
		byName[r["reported"]] = r
	}
	assert.Equal(t, "BOOLEAN", byName["bool"]["generic"])
	assert.Equal(t, "BOOL", byName["bool"]["renders_as"])
	assert.Equal(t, "TINYINT", byName["ubyte"]["renders_as"])
	assert.Equal(t, "NVARCHAR", byName["nvarchar"]["renders_as"])

	_, err = execute(t, NewTypesCommand(), "--dialect", "oracle")
	assert.ErrorContains(t, err, "unknown dialect")
}

func TestInsertCommand_Compile(t *testing.T) {
	setupCommandTest(t, nil, "json")

	out, err := execute(t, NewInsertCommand(),
		"--table", "public.events", "--columns", "id,label", "--rows", `[[1,"a"],[2,"b"]]`)
	require.NoError(t, err)

	var got compiledInsert
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "INSERT INTO public.events (id, label) VALUES (?, ?)", got.SQL)
	assert.Equal(t, []any{float64(1), "a", float64(2), "b"}, got.Params)
	assert.Equal(t, 2, got.Rows)
	assert.True(t, got.Multi)
}

func TestInsertCommand_BadRows(t *testing.T) {
	setupCommandTest(t, nil, "")

	_, err := execute(t, NewInsertCommand(), "--table", "t", "--columns", "a,b", "--rows", `[[1]]`)
	assert.ErrorContains(t, err, "row 0 has 1 values, want 2")

	_, err = execute(t, NewInsertCommand(), "--table", "t", "--columns", "a", "--rows", `not json`)
	assert.ErrorContains(t, err, "invalid --rows")
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		width   int
		want    [][]any
		wantErr string
	}{
		{name: "empty", input: "", width: 1, want: nil},
		{
			name:  "integers stay integral",
			input: `[[1, -2, 9007199254740993]]`,
			width: 3,
			want:  [][]any{{int64(1), int64(-2), int64(9007199254740993)}},
		},
		{
			name:  "fractions and exponents are floats",
			input: `[[2.5, 1e3]]`,
			width: 2,
			want:  [][]any{{2.5, float64(1000)}},
		},
		{
			name:  "mixed values",
			input: `[[1, "a", null, true]]`,
			width: 4,
			want:  [][]any{{int64(1), "a", nil, true}},
		},
		{name: "width mismatch", input: `[[1]]`, width: 2, wantErr: "row 0 has 1 values, want 2"},
		{name: "not json", input: `nope`, width: 1, wantErr: "invalid --rows"},
		{name: "trailing data", input: `[[1]] [[2]]`, width: 1, wantErr: "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRows(tt.input, tt.width)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsertCommand_Execute(t *testing.T) {
	conn := testutil.NewFakeConn(map[string]testutil.FakeResult{
		"INSERT INTO events (id) VALUES (?)": {RowCount: 1, LastRowID: 7, HasLastID: true},
	})
	setupCommandTest(t, conn, "text")

	out, err := execute(t, NewInsertCommand(), "--table", "events", "--columns", "id", "--rows", `[[5]]`, "--execute")
	require.NoError(t, err)
	assert.Contains(t, out, "INSERT INTO events (id) VALUES (?)")
	assert.Contains(t, out, "rows affected: 1")
	assert.Contains(t, out, "inserted primary key: [7]")

	calls := conn.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, "executemany", last.Method)
	assert.Equal(t, []any{int64(5)}, last.Params)
	assert.True(t, conn.Closed)
}

func TestRenderDDLCommand(t *testing.T) {
	setupCommandTest(t, nil, "text")

	path := clitest.WriteFile(t, t.TempDir(), "flags.yaml", `name: public.flags
columns:
  - name: id
    type: int
  - name: enabled
    type: bool
    nullable: true
  - name: label
    type: nvarchar
    length: 40
`)

	out, err := execute(t, NewRenderDDLCommand(), path)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE public.flags (\n"+
		"\tid INTEGER NOT NULL,\n"+
		"\tenabled BOOL,\n"+
		"\tlabel NVARCHAR(40) NOT NULL\n"+
		")\n", out)
}

func TestRenderDDLCommand_Errors(t *testing.T) {
	setupCommandTest(t, nil, "")
	dir := t.TempDir()

	_, err := execute(t, NewRenderDDLCommand(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	bad := clitest.WriteFile(t, dir, "bad.yaml", "name: t\ncolumns:\n  - name: x\n    type: geometry\n")
	_, err = execute(t, NewRenderDDLCommand(), bad)
	assert.ErrorContains(t, err, `unknown type "geometry"`)

	empty := clitest.WriteFile(t, dir, "empty.yaml", "name: t\n")
	_, err = execute(t, NewRenderDDLCommand(), empty)
	assert.ErrorContains(t, err, "has no columns")
}

func TestCatalogCommands(t *testing.T) {
	tests := []struct {
		name    string
		cmd     func() *cobra.Command
		args    []string
		output  string
		wantOut []string
	}{
		{
			name:    "tables",
			cmd:     NewTablesCommand,
			wantOut: []string{"| table |", "| events |", "| users |"},
		},
		{
			name:    "schemas",
			cmd:     NewSchemasCommand,
			wantOut: []string{"| public |", "| staging |"},
		},
		{
			name:    "has-table true",
			cmd:     NewHasTableCommand,
			args:    []string{"events"},
			wantOut: []string{"- **exists**: true"},
		},
		{
			name:    "has-table false",
			cmd:     NewHasTableCommand,
			args:    []string{"Events"},
			wantOut: []string{"- **exists**: false"},
		},
		{
			name:    "server-version",
			cmd:     NewServerVersionCommand,
			output:  "text",
			wantOut: []string{"v2022.1.6"},
		},
		{
			name:    "columns",
			cmd:     NewColumnsCommand,
			args:    []string{"events"},
			wantOut: []string{"| id | INTEGER | int | false |", "| label | UNICODE(20) | nvarchar(20) | true |"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.NewFakeConn(catalogResults())
			setupCommandTest(t, conn, tt.output)

			out, err := execute(t, tt.cmd(), tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			if tt.output == "" {
				clitest.AssertValidMarkdown(t, out)
			}
			assert.True(t, conn.Closed, "connection should be closed")
			assert.True(t, conn.AllCursorsClosed(), "cursors should be closed")
		})
	}
}

func TestDescribeCommand_JSON(t *testing.T) {
	setupCommandTest(t, testutil.NewFakeConn(catalogResults()), "json")

	out, err := execute(t, NewDescribeCommand(), "events")
	require.NoError(t, err)

	var info struct {
		Name    string `json:"name"`
		Schema  string `json:"schema"`
		Columns []struct {
			Name     string
			RawType  string
			Nullable bool
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "events", info.Name)
	assert.Equal(t, "public", info.Schema)
	require.Len(t, info.Columns, 2)
	assert.Equal(t, "label", info.Columns[1].Name)
	assert.True(t, info.Columns[1].Nullable)
}

func TestCatalogCommand_ConnectFailure(t *testing.T) {
	setupCommandTest(t, nil, "")

	_, err := execute(t, NewTablesCommand())
	assert.ErrorContains(t, err, "failed to connect")
}

func TestMigrate_NoSQLDriver(t *testing.T) {
	setupCommandTest(t, testutil.NewFakeConn(nil), "")

	_, err := execute(t, NewMigrateCommand(), "status")
	assert.ErrorContains(t, err, "no database/sql driver registered")
}
