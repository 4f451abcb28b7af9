package sqream

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/sqreamsql/internal/testutil"
	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogConn() *testutil.FakeConn {
	return testutil.NewFakeConn(map[string]testutil.FakeResult{
		queryTables: {
			Columns: []string{"database_name", "table_id", "schema_name", "table_name"},
			Rows: [][]any{
				{"master", 1, "public", "orders"},
				{"master", 2, "public", []byte("customers")},
				{"master", 3, "staging", "orders_raw"},
				{"master", 4, "public", "o'brien"},
				{"master", 5, "public", `"weird name"`},
			},
		},
		querySchemas: {
			Columns: []string{"schema_name"},
			Rows:    [][]any{{"public"}, {"staging"}},
		},
		queryServerVersion: {
			Columns: []string{"version"},
			Rows:    [][]any{{"v2022.1.6"}},
		},
		"select get_ddl('orders')": {
			Columns: []string{"ddl"},
			Rows: [][]any{{ddlText(`create table "public"."orders" (`,
				`"id" bigint not null,`,
				`"note" varchar(40) null`,
			)}},
		},
		"select get_ddl('o''brien')": {
			Columns: []string{"ddl"},
			Rows:    [][]any{{ddlText(`create table "public"."o'brien" (`, `"x" int null`)}},
		},
	})
}

func TestAdapter_Name(t *testing.T) {
	a := New(testutil.NewTestLogger(t))
	assert.Equal(t, "sqream", a.Name())
	assert.Equal(t, "sqream", a.Dialect().Name)
}

func TestAdapter_Initialize(t *testing.T) {
	a := New(nil)
	assert.Empty(t, a.DefaultSchema())
	require.NoError(t, a.Initialize(context.Background(), testutil.NewFakeConn(nil)))
	assert.Equal(t, "public", a.DefaultSchema())
}

func TestAdapter_Configure(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.Configure(adapter.Config{Type: "sqream", Params: map[string]any{"cluster": true}}))
	assert.True(t, a.Params().Cluster)
	assert.Equal(t, "sqream", a.Cfg.Type)

	err := a.Configure(adapter.Config{Params: map[string]any{"nope": 1}})
	require.Error(t, err)
}

func TestAdapter_Reflection(t *testing.T) {
	ctx := context.Background()
	a := New(testutil.NewTestLogger(t))

	t.Run("table names read field 3", func(t *testing.T) {
		conn := catalogConn()
		names, err := a.TableNames(ctx, conn, "ignored")
		require.NoError(t, err)
		assert.Equal(t, []string{"orders", "customers", "orders_raw", "o'brien", `"weird name"`}, names)
		assert.True(t, conn.AllCursorsClosed())
	})

	t.Run("schema names", func(t *testing.T) {
		names, err := a.SchemaNames(ctx, catalogConn())
		require.NoError(t, err)
		assert.Equal(t, []string{"public", "staging"}, names)
	})

	hasTable := []struct {
		name  string
		table string
		want  bool
	}{
		{name: "exact match", table: "customers", want: true},
		{name: "case sensitive", table: "Customers", want: false},
		{name: "single quote", table: "o'brien", want: true},
		{name: "double quotes and space", table: `"weird name"`, want: true},
		{name: "unquoted form of quoted name", table: "weird name", want: false},
		{name: "missing", table: "no_such_table", want: false},
	}
	for _, tt := range hasTable {
		t.Run("has table/"+tt.name, func(t *testing.T) {
			conn := catalogConn()
			ok, err := a.HasTable(ctx, conn, tt.table, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.True(t, conn.AllCursorsClosed())
		})
	}

	t.Run("columns from get_ddl", func(t *testing.T) {
		cols, err := a.Columns(ctx, catalogConn(), "orders", "")
		require.NoError(t, err)
		require.Len(t, cols, 2)
		assert.Equal(t, "id", cols[0].Name)
		assert.False(t, cols[0].Nullable)
		assert.Equal(t, core.SQLType{Kind: core.TypeString, Length: 40}, cols[1].Type)
		assert.True(t, cols[1].Nullable)
	})

	t.Run("table name quotes are doubled", func(t *testing.T) {
		conn := catalogConn()
		cols, err := a.Columns(ctx, conn, "o'brien", "")
		require.NoError(t, err)
		require.Len(t, cols, 1)
		assert.Equal(t, "select get_ddl('o''brien')", conn.Calls()[0].Query)
	})

	t.Run("server version", func(t *testing.T) {
		v, err := a.ServerVersion(ctx, catalogConn())
		require.NoError(t, err)
		assert.Equal(t, "v2022.1.6", v)
	})

	for _, table := range []string{"orders", "no_such_table"} {
		t.Run("constraints are always empty/"+table, func(t *testing.T) {
			conn := catalogConn()
			pk, err := a.PrimaryKey(ctx, conn, table, "")
			require.NoError(t, err)
			assert.NotNil(t, pk.Columns)
			assert.Empty(t, pk.Columns)

			fks, err := a.ForeignKeys(ctx, conn, table, "")
			require.NoError(t, err)
			assert.NotNil(t, fks)
			assert.Empty(t, fks)

			idx, err := a.Indexes(ctx, conn, table, "")
			require.NoError(t, err)
			assert.NotNil(t, idx)
			assert.Empty(t, idx)
			assert.Empty(t, conn.Calls())
		})
	}
}

func TestAdapter_ReflectionErrors(t *testing.T) {
	ctx := context.Background()
	a := New(nil)

	t.Run("not connected", func(t *testing.T) {
		_, err := a.TableNames(ctx, nil, "")
		assert.ErrorIs(t, err, adapter.ErrNotConnected)
	})

	t.Run("short catalog row", func(t *testing.T) {
		conn := testutil.NewFakeConn(map[string]testutil.FakeResult{
			queryTables: {Columns: []string{"a"}, Rows: [][]any{{"x"}}},
		})
		_, err := a.TableNames(ctx, conn, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog row 0 has 1 fields")
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("boom")
		conn := testutil.NewFakeConn(map[string]testutil.FakeResult{querySchemas: {Err: boom}})
		_, err := a.SchemaNames(ctx, conn)
		assert.ErrorIs(t, err, boom)
		assert.True(t, conn.AllCursorsClosed())
	})

	t.Run("unknown column type", func(t *testing.T) {
		conn := testutil.NewFakeConn(map[string]testutil.FakeResult{
			"select get_ddl('g')": {
				Columns: []string{"ddl"},
				Rows:    [][]any{{ddlText(`create table "public"."g" (`, `"shape" geography null`)}},
			},
		})
		_, err := a.Columns(ctx, conn, "g", "")
		var unknown *UnknownTypeError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestIsBulkInsert(t *testing.T) {
	tests := []struct {
		statement string
		want      bool
	}{
		{"INSERT INTO t (a) VALUES (?)", true},
		{"insert into t values (?, ?)", true},
		{"  \n\tInsert into t values (?)", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = ?", false},
		{"SELECT * FROM t WHERE a = ?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBulkInsert(tt.statement))
		})
	}
}

func TestAdapter_DoExecute(t *testing.T) {
	ctx := context.Background()
	a := New(nil)

	tests := []struct {
		name       string
		statement  string
		params     []any
		wantMethod string
		wantLayout dbapi.Layout
	}{
		{
			name:       "insert with placeholders uses flat executemany",
			statement:  "INSERT INTO t (a, b) VALUES (?, ?)",
			params:     []any{1, "x", 2, "y"},
			wantMethod: "executemany",
			wantLayout: dbapi.LayoutFlatList,
		},
		{
			name:       "leading whitespace is ignored",
			statement:  "\n  insert into t values (?)",
			params:     []any{1},
			wantMethod: "executemany",
			wantLayout: dbapi.LayoutFlatList,
		},
		{
			name:       "insert without placeholders",
			statement:  "INSERT INTO t VALUES (1)",
			wantMethod: "execute",
		},
		{
			name:       "select",
			statement:  "SELECT ?",
			params:     []any{1},
			wantMethod: "execute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.NewFakeConn(nil)
			cur, err := conn.Cursor(ctx)
			require.NoError(t, err)

			require.NoError(t, a.DoExecute(ctx, cur, tt.statement, tt.params, nil))

			calls := conn.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantMethod, calls[0].Method)
			assert.Equal(t, tt.params, calls[0].Params)
			assert.Equal(t, tt.wantLayout, calls[0].Layout)
		})
	}
}

func TestAdapter_LoadDriver(t *testing.T) {
	t.Run("first working loader wins", func(t *testing.T) {
		a := New(testutil.NewTestLogger(t))
		want := &testutil.FakeDriver{DriverName: "gosqream"}
		a.SetDriverLoaders(
			func() (dbapi.Driver, error) { return nil, errors.New("sqream not installed") },
			func() (dbapi.Driver, error) { return want, nil },
		)

		drv, err := a.LoadDriver()
		require.NoError(t, err)
		assert.Equal(t, "gosqream", drv.Name())
		assert.IsType(t, &dbapi.LoggingDriver{}, drv)
	})

	t.Run("no driver available", func(t *testing.T) {
		a := New(nil)
		require.NoError(t, a.Configure(adapter.Config{Params: map[string]any{
			"driver_names": []any{"sqream-missing-driver"},
		}}))

		_, err := a.LoadDriver()
		require.Error(t, err)
		assert.ErrorIs(t, err, dbapi.ErrNoDriver)
		var notRegistered *dbapi.DriverNotRegisteredError
		assert.ErrorAs(t, err, &notRegistered)
	})
}
