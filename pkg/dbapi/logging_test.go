package dbapi

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingDriver(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	drv := NewLoggingDriver(NewSQLDriver("sqlite"), logger)
	assert.Equal(t, "sqlite", drv.Name())

	conn, err := drv.Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	cur, err := conn.Cursor(ctx)
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "CREATE TABLE t (id INTEGER)", nil))
	require.NoError(t, cur.ExecuteMany(ctx, "INSERT INTO t (id) VALUES (?)", []any{1, 2}, LayoutFlatList))
	require.Error(t, cur.Execute(ctx, "SELEC nonsense", nil))

	stats := drv.Stats().Snapshot()
	assert.Equal(t, int64(2), stats.Statements)
	assert.Equal(t, int64(1), stats.Batches)
	assert.Equal(t, int64(1), stats.Errors)

	out := buf.String()
	assert.Contains(t, out, "statement executed")
	assert.Contains(t, out, "op=executemany")
	assert.Contains(t, out, "statement failed")
}

func TestLoggingDriver_SlowQuery(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	drv := NewLoggingDriver(NewSQLDriver("sqlite"), logger, WithSlowThreshold(time.Nanosecond))
	conn, err := drv.Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	cur, err := conn.Cursor(ctx)
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "CREATE TABLE t (id INTEGER)", nil))

	assert.Equal(t, int64(1), drv.Stats().Snapshot().SlowQueries)
	assert.Contains(t, buf.String(), "slow query detected")
}

func TestLoggingDriver_StatementLoggingDisabled(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	drv := NewLoggingDriver(NewSQLDriver("sqlite"), logger, WithStatementLogging(false))
	conn, err := drv.Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	cur, err := conn.Cursor(ctx)
	require.NoError(t, err)
	require.NoError(t, cur.Execute(ctx, "CREATE TABLE t (id INTEGER)", nil))

	assert.NotContains(t, buf.String(), "statement executed")
}

func TestLoggingConn_Begin(t *testing.T) {
	ctx := context.Background()
	drv := NewLoggingDriver(NewSQLDriver("sqlite"), nil)
	conn, err := drv.Connect(ctx, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	b, ok := conn.(TxBeginner)
	require.True(t, ok)
	require.NoError(t, b.Begin(ctx))
	require.NoError(t, conn.Rollback())
}
