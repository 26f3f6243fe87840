package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/ddcctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedFlushDropsBatch(t *testing.T) {
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "metrics.db"), Enabled: true, BatchSize: 2}
	repo, err := NewRepository(cfg, logger.Default())
	require.NoError(t, err)
	r := repo.(*repository)

	_, err = r.db.Exec("DROP TABLE writes")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(&WriteRecord{Timestamp: time.Now(), OK: true}))
		assert.Len(t, r.buffer, 1)

		err := r.Record(&WriteRecord{Timestamp: time.Now(), OK: true})
		require.Error(t, err)
		assert.Empty(t, r.buffer, "failed batch is not retried")
	}

	require.NoError(t, r.Close())
}
