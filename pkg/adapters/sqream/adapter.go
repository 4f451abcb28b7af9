// Package sqream provides the SQream DB adapter: driver loading, catalog
// reflection through SQream's utility functions, and flat-list bulk inserts.
package sqream

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	sqdialect "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream/dialect"
	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

const (
	queryTables        = "select * from sqream_catalog.tables"
	querySchemas       = "select get_schemas()"
	queryServerVersion = "select get_sqream_server_version()"

	// tableNameField is the position of table_name in sqream_catalog.tables.
	tableNameField = 3
)

// Adapter implements the adapter.Adapter interface for SQream DB.
type Adapter struct {
	adapter.BaseAdapter

	params        *Params
	loaders       []dbapi.Loader
	defaultSchema string
}

// New creates a new SQream adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseAdapter: adapter.BaseAdapter{Logger: logger},
		params:      &Params{},
	}
}

// Name returns the adapter's registry name.
func (a *Adapter) Name() string {
	return sqdialect.Name
}

// Dialect returns the SQream dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return sqdialect.SQream
}

// Configure parses the adapter params from cfg.
func (a *Adapter) Configure(cfg adapter.Config) error {
	p, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}
	a.Cfg = cfg
	a.params = p
	return nil
}

// Params returns the parsed adapter params.
func (a *Adapter) Params() *Params {
	return a.params
}

// SetDriverLoaders replaces the database/sql lookup with explicit loaders.
func (a *Adapter) SetDriverLoaders(loaders ...dbapi.Loader) {
	a.loaders = loaders
}

// LoadDriver returns the first available driver wrapped with statement
// logging.
func (a *Adapter) LoadDriver() (dbapi.Driver, error) {
	loaders := a.loaders
	if len(loaders) == 0 {
		for _, name := range a.params.Drivers() {
			loaders = append(loaders, dbapi.SQLDriverLoader(name))
		}
	}

	drv, err := dbapi.Load(loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sqream driver: %w", err)
	}
	a.Log().Debug("loaded sqream driver", slog.String("driver", drv.Name()))

	return dbapi.NewLoggingDriver(drv, a.Log(),
		dbapi.WithSlowThreshold(a.params.SlowQueryThreshold),
		dbapi.WithStatementLogging(a.params.StatementLogging()),
	), nil
}

// DSN builds the connection URL for cfg.
func (a *Adapter) DSN(cfg adapter.Config) (string, error) {
	p := a.params
	if cfg.Params != nil {
		var err error
		if p, err = ParseParams(cfg.Params); err != nil {
			return "", err
		}
	}
	return buildSQreamDSN(cfg, p), nil
}

// Initialize sets the default schema. SQream always starts sessions in
// "public", so no query is issued.
func (a *Adapter) Initialize(_ context.Context, _ dbapi.Conn) error {
	a.defaultSchema = sqdialect.SQream.DefaultSchema
	return nil
}

// DefaultSchema returns the schema set by Initialize.
func (a *Adapter) DefaultSchema() string {
	return a.defaultSchema
}

// TableNames lists every table in the catalog. SQream reports tables of all
// schemas together, so schema is ignored.
func (a *Adapter) TableNames(ctx context.Context, conn dbapi.Conn, _ string) ([]string, error) {
	rows, err := a.QueryAll(ctx, conn, queryTables)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) <= tableNameField {
			return nil, fmt.Errorf("catalog row %d has %d fields, want at least %d", i, len(row), tableNameField+1)
		}
		names = append(names, adapter.AsString(row[tableNameField]))
	}
	return names, nil
}

// SchemaNames lists every schema.
func (a *Adapter) SchemaNames(ctx context.Context, conn dbapi.Conn) ([]string, error) {
	rows, err := a.QueryAll(ctx, conn, querySchemas)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		names = append(names, adapter.AsString(row[0]))
	}
	return names, nil
}

// HasTable reports whether table appears in TableNames.
func (a *Adapter) HasTable(ctx context.Context, conn dbapi.Conn, table, schema string) (bool, error) {
	names, err := a.TableNames(ctx, conn, schema)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, table), nil
}

// TableDDL fetches and parses the get_ddl output for table.
func (a *Adapter) TableDDL(ctx context.Context, conn dbapi.Conn, table string) (*DDL, error) {
	v, err := a.QueryScalar(ctx, conn, ddlQuery(table))
	if err != nil {
		return nil, fmt.Errorf("failed to get DDL for %s: %w", table, err)
	}
	ddl, err := ParseDDL(adapter.AsString(v), a.Dialect())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DDL for %s: %w", table, err)
	}
	return ddl, nil
}

// Columns reflects the columns of table from its DDL. Defaults are never
// reported.
func (a *Adapter) Columns(ctx context.Context, conn dbapi.Conn, table, _ string) ([]core.ReflectedColumn, error) {
	ddl, err := a.TableDDL(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	return ddl.Columns, nil
}

// PrimaryKey always reports no primary key; SQream has no such constraints.
func (a *Adapter) PrimaryKey(_ context.Context, _ dbapi.Conn, _, _ string) (core.PrimaryKey, error) {
	return core.PrimaryKey{Columns: []string{}}, nil
}

// ForeignKeys always reports none.
func (a *Adapter) ForeignKeys(_ context.Context, _ dbapi.Conn, _, _ string) ([]core.ForeignKey, error) {
	return []core.ForeignKey{}, nil
}

// Indexes always reports none.
func (a *Adapter) Indexes(_ context.Context, _ dbapi.Conn, _, _ string) ([]core.Index, error) {
	return []core.Index{}, nil
}

// ServerVersion returns the server's version string.
func (a *Adapter) ServerVersion(ctx context.Context, conn dbapi.Conn) (string, error) {
	v, err := a.QueryScalar(ctx, conn, queryServerVersion)
	if err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	return adapter.AsString(v), nil
}

// DoExecute runs statement on cur. INSERT statements with placeholders go
// through ExecuteMany with params as one flat list; everything else is a
// plain Execute.
func (a *Adapter) DoExecute(ctx context.Context, cur dbapi.Cursor, statement string, params []any, _ adapter.ExecutionContext) error {
	if IsBulkInsert(statement) {
		return cur.ExecuteMany(ctx, statement, params, dbapi.LayoutFlatList)
	}
	return cur.Execute(ctx, statement, params)
}

// IsBulkInsert reports whether statement is an INSERT that carries
// placeholders. Leading whitespace is ignored.
func IsBulkInsert(statement string) bool {
	trimmed := strings.TrimLeftFunc(statement, unicode.IsSpace)
	return strings.HasPrefix(strings.ToLower(trimmed), "insert") && strings.Contains(statement, "?")
}

// ddlQuery builds the get_ddl call for table with the name as a string
// literal.
func ddlQuery(table string) string {
	return "select get_ddl('" + strings.ReplaceAll(table, "'", "''") + "')"
}

var _ adapter.Adapter = (*Adapter)(nil)
