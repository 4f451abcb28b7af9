package dbapi

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats holds statement execution counters for a LoggingDriver.
type Stats struct {
	Statements    atomic.Int64
	Batches       atomic.Int64
	SlowQueries   atomic.Int64
	Errors        atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Statements    int64
	Batches       int64
	SlowQueries   int64
	Errors        int64
	TotalDuration time.Duration
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Statements:    s.Statements.Load(),
		Batches:       s.Batches.Load(),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
	}
}

// LoggingOption configures a LoggingDriver.
type LoggingOption func(*LoggingDriver)

// WithSlowThreshold sets the duration above which a statement is logged as
// slow. Zero disables slow statement warnings.
func WithSlowThreshold(d time.Duration) LoggingOption {
	return func(l *LoggingDriver) {
		l.slowThreshold = d
	}
}

// WithStatementLogging turns debug logging of every statement on or off.
func WithStatementLogging(enabled bool) LoggingOption {
	return func(l *LoggingDriver) {
		l.logStatements = enabled
	}
}

// LoggingDriver wraps a Driver and logs the statements run through the
// connections it opens.
type LoggingDriver struct {
	Driver
	logger        *slog.Logger
	stats         *Stats
	slowThreshold time.Duration
	logStatements bool
}

// NewLoggingDriver wraps drv. A nil logger discards output.
func NewLoggingDriver(drv Driver, logger *slog.Logger, opts ...LoggingOption) *LoggingDriver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &LoggingDriver{
		Driver:        drv,
		logger:        logger,
		stats:         &Stats{},
		logStatements: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats returns the live counters.
func (l *LoggingDriver) Stats() *Stats {
	return l.stats
}

// Connect opens a connection through the wrapped driver.
func (l *LoggingDriver) Connect(ctx context.Context, dsn string) (Conn, error) {
	conn, err := l.Driver.Connect(ctx, dsn)
	if err != nil {
		l.logger.Debug("connect failed", slog.String("driver", l.Name()), slog.String("error", err.Error()))
		return nil, err
	}
	l.logger.Debug("connected", slog.String("driver", l.Name()))
	return &loggingConn{Conn: conn, driver: l}, nil
}

func (l *LoggingDriver) record(ctx context.Context, op, query string, params int, start time.Time, err error) {
	duration := time.Since(start)
	l.stats.TotalDuration.Add(int64(duration))
	if op == "executemany" {
		l.stats.Batches.Add(1)
	} else {
		l.stats.Statements.Add(1)
	}

	if err != nil {
		l.stats.Errors.Add(1)
		l.logger.DebugContext(ctx, "statement failed",
			slog.String("op", op),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return
	}

	if l.slowThreshold > 0 && duration > l.slowThreshold {
		l.stats.SlowQueries.Add(1)
		l.logger.WarnContext(ctx, "slow query detected",
			slog.String("op", op),
			slog.Duration("duration", duration),
			slog.String("query", query),
		)
		return
	}

	if l.logStatements {
		l.logger.DebugContext(ctx, "statement executed",
			slog.String("op", op),
			slog.Int("params", params),
			slog.Duration("duration", duration),
			slog.String("query", query),
		)
	}
}

type loggingConn struct {
	Conn
	driver *LoggingDriver
}

func (c *loggingConn) Cursor(ctx context.Context) (Cursor, error) {
	cur, err := c.Conn.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	return &loggingCursor{Cursor: cur, driver: c.driver}, nil
}

func (c *loggingConn) Begin(ctx context.Context) error {
	b, ok := c.Conn.(TxBeginner)
	if !ok {
		return ErrTxUnsupported
	}
	c.driver.logger.DebugContext(ctx, "begin")
	return b.Begin(ctx)
}

func (c *loggingConn) Commit() error {
	c.driver.logger.Debug("commit")
	return c.Conn.Commit()
}

func (c *loggingConn) Rollback() error {
	c.driver.logger.Debug("rollback")
	return c.Conn.Rollback()
}

type loggingCursor struct {
	Cursor
	driver *LoggingDriver
}

func (c *loggingCursor) Execute(ctx context.Context, query string, params []any) error {
	start := time.Now()
	err := c.Cursor.Execute(ctx, query, params)
	c.driver.record(ctx, "execute", query, len(params), start, err)
	return err
}

func (c *loggingCursor) ExecuteMany(ctx context.Context, query string, params []any, layout Layout) error {
	start := time.Now()
	err := c.Cursor.ExecuteMany(ctx, query, params, layout)
	c.driver.record(ctx, "executemany", query, len(params), start, err)
	return err
}

var (
	_ Driver     = (*LoggingDriver)(nil)
	_ TxBeginner = (*loggingConn)(nil)
)
