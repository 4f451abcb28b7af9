// Package engine connects an adapter to its driver and runs statements
// through the adapter's execution context.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// DefaultAdapterType is used when the configuration names no adapter.
const DefaultAdapterType = "sqream"

// Engine owns an adapter and the driver it loaded. Connections are opened on
// demand; the adapter is initialized against the first one.
type Engine struct {
	adapter  adapter.Adapter
	dbConfig adapter.Config
	driver   dbapi.Driver
	dsn      string

	initialized bool
	initMu      sync.Mutex

	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig contains the full adapter configuration
	AdapterConfig *adapter.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Driver replaces the adapter's driver lookup when set.
	Driver dbapi.Driver
}

// New resolves the adapter named by the configuration and loads its driver.
// A missing driver is fatal.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var dbConfig adapter.Config
	if cfg.AdapterConfig != nil {
		dbConfig = *cfg.AdapterConfig
	}
	if dbConfig.Type == "" {
		dbConfig.Type = DefaultAdapterType
	}

	logger.Debug("initializing engine", "adapter_type", dbConfig.Type)

	adp, err := adapter.NewAdapter(dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}

	drv := cfg.Driver
	if drv == nil {
		if drv, err = adp.LoadDriver(); err != nil {
			return nil, fmt.Errorf("failed to load database driver: %w", err)
		}
	}

	dsn, err := adp.DSN(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	return &Engine{
		adapter:  adp,
		dbConfig: dbConfig,
		driver:   drv,
		dsn:      dsn,
		logger:   logger,
	}, nil
}

// Adapter returns the engine's adapter.
func (e *Engine) Adapter() adapter.Adapter {
	return e.adapter
}

// Dialect returns the adapter's dialect.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.adapter.Dialect()
}

// Driver returns the loaded driver.
func (e *Engine) Driver() dbapi.Driver {
	return e.driver
}

// DSN returns the connection string used by Connect.
func (e *Engine) DSN() string {
	return e.dsn
}

// Connect opens a new connection. The first successful connection also
// initializes the adapter.
func (e *Engine) Connect(ctx context.Context) (*Connection, error) {
	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type, "driver", e.driver.Name())

	raw, err := e.driver.Connect(ctx, e.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := e.initialize(ctx, raw); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Connection{engine: e, conn: raw}, nil
}

func (e *Engine) initialize(ctx context.Context, conn dbapi.Conn) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.initialized {
		return nil
	}
	if err := e.adapter.Initialize(ctx, conn); err != nil {
		return fmt.Errorf("failed to initialize %s adapter: %w", e.adapter.Name(), err)
	}
	e.initialized = true
	e.logger.Debug("adapter initialized", "default_schema", e.adapter.DefaultSchema())
	return nil
}

// Execute runs compiled on a connection of its own. The connection is closed
// together with the result.
func (e *Engine) Execute(ctx context.Context, compiled *dialect.Compiled) (*adapter.Result, error) {
	conn, err := e.Connect(ctx)
	if err != nil {
		return nil, err
	}
	res, err := conn.execute(ctx, compiled, adapter.ExecOptions{AutoClose: true})
	if err != nil {
		return nil, errors.Join(err, conn.Close())
	}
	return res, nil
}

// ExecuteText runs a literal statement on a connection of its own.
func (e *Engine) ExecuteText(ctx context.Context, sql string, params ...any) (*adapter.Result, error) {
	return e.Execute(ctx, dialect.Text(sql, params...))
}
