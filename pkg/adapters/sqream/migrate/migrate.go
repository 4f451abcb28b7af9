// Package migrate runs goose migrations against SQream DB.
//
// goose ships no SQream dialect, so the version table is managed by a custom
// store built from a SQream querier.
package migrate

import (
	"cmp"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/database/dialect"
)

// DialectName is the name the SQream store answers to.
const DialectName = "sqream"

// Querier renders the version table statements in SQream SQL.
type Querier struct{}

var _ dialect.Querier = Querier{}

func (Querier) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		id bigint identity(1,1) NOT NULL,
		version_id bigint NOT NULL,
		is_applied bool NOT NULL,
		tstamp datetime default getdate()
	)`
	return fmt.Sprintf(q, tableName)
}

func (Querier) InsertVersion(tableName string) string {
	return fmt.Sprintf(`INSERT INTO %s (version_id, is_applied) VALUES (?, ?)`, tableName)
}

func (Querier) DeleteVersion(tableName string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE version_id=?`, tableName)
}

func (Querier) GetMigrationByVersion(tableName string) string {
	return fmt.Sprintf(`SELECT tstamp, is_applied FROM %s WHERE version_id=? ORDER BY tstamp DESC LIMIT 1`, tableName)
}

func (Querier) ListMigrations(tableName string) string {
	return fmt.Sprintf(`SELECT version_id, is_applied FROM %s ORDER BY id DESC`, tableName)
}

func (Querier) GetLatestVersion(tableName string) string {
	return fmt.Sprintf(`SELECT MAX(version_id) FROM %s`, tableName)
}

// NewStore returns the SQream version store. An empty tableName selects
// goose's default table.
func NewStore(tableName string) (database.Store, error) {
	return database.NewStoreFromQuerier(cmp.Or(tableName, goose.DefaultTablename), Querier{})
}

type options struct {
	tableName string
	logger    *slog.Logger
}

// Option configures NewProvider.
type Option func(*options)

// WithTableName overrides the version table name.
func WithTableName(name string) Option {
	return func(o *options) { o.tableName = name }
}

// WithLogger routes goose's progress output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewProvider returns a goose provider for the migrations in fsys.
func NewProvider(db *sql.DB, fsys fs.FS, opts ...Option) (*goose.Provider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	store, err := NewStore(o.tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s version store: %w", DialectName, err)
	}

	p, err := goose.NewProvider(goose.DialectCustom, db, fsys,
		goose.WithStore(store),
		goose.WithSlog(o.logger),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}
