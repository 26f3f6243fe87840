package metrics_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"codeberg.org/mutker/ddcctl/internal/metrics"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countWrites(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM writes").Scan(&n))
	return n
}

func TestNewWriteRecord(t *testing.T) {
	at := time.Unix(1700000000, 0)
	failed := monitor.Completion{
		Request:  monitor.Request{ID: "r1", Index: 1, Value: 40},
		Raw:      40,
		Err:      errors.New().New(monitor.ErrSetFailed),
		Duration: 30 * time.Millisecond,
	}

	rec := metrics.NewWriteRecord(failed, at)

	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, 1, rec.MonitorIndex)
	assert.Equal(t, "r1", rec.RequestID)
	assert.Equal(t, uint8(40), rec.Value)
	assert.False(t, rec.OK)
	assert.Equal(t, string(monitor.ErrSetFailed), rec.ErrorCode)
}

func TestDisabledServiceIsNoop(t *testing.T) {
	svc, err := metrics.NewService(metrics.DefaultConfig(), logger.Default())
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), &metrics.WriteRecord{}))
	require.NoError(t, svc.Close())
}

func TestServiceValidatesConfig(t *testing.T) {
	cfg := metrics.Config{Enabled: true}

	_, err := metrics.NewService(cfg, logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidDBPath))
}

func TestRecordImmediate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	svc, err := metrics.NewService(metrics.Config{DBPath: path, Enabled: true}, logger.Default())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rec := &metrics.WriteRecord{
			Timestamp: time.Now(),
			RequestID: fmt.Sprintf("r%d", i),
			Value:     uint8(10 * i),
			Raw:       uint16(10 * i),
			OK:        true,
		}
		require.NoError(t, svc.Record(context.Background(), rec))
	}

	assert.Equal(t, 3, countWrites(t, path))
	require.NoError(t, svc.Close())
}

func TestRecordBatchedFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	cfg := metrics.Config{DBPath: path, Enabled: true, BatchSize: 10, BatchTimeout: 60}
	svc, err := metrics.NewService(cfg, logger.Default())
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), &metrics.WriteRecord{Timestamp: time.Now(), OK: true}))
	assert.Equal(t, 0, countWrites(t, path), "partial batch is buffered")

	require.NoError(t, svc.Close())
	assert.Equal(t, 1, countWrites(t, path))
}

func TestRecordNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	svc, err := metrics.NewService(metrics.Config{DBPath: path, Enabled: true}, logger.Default())
	require.NoError(t, err)
	defer svc.Close()

	err = svc.Record(context.Background(), nil)
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidMetrics))
}

func TestRecordCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	svc, err := metrics.NewService(metrics.Config{DBPath: path, Enabled: true}, logger.Default())
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = svc.Record(ctx, &metrics.WriteRecord{})
	assert.True(t, errors.HasCode(err, metrics.ErrOperationTimeout))
}

func TestSchemaMigrationBacksUpOldVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
        CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
        INSERT INTO schema_versions VALUES (99, datetime('now'));`)
	require.NoError(t, err)

	require.NoError(t, metrics.ValidateAndUpdateSchema(db, path, logger.Default()))

	version, err := metrics.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, metrics.SchemaVersion, version)

	exists, err := metrics.TableExists(db, "writes")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, db.Close())

	backups, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}
