package metrics

import "codeberg.org/mutker/ddcctl/internal/errors"

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/ddcctl/metrics.db"
	defaultBatchSize    = 16
	defaultBatchTimeout = 5
)

type Config struct {
	DBPath  string
	Enabled bool
	// BatchSize is the number of records buffered before a flush. Zero
	// flushes every record immediately.
	BatchSize int
	// BatchTimeout is the flush interval in seconds for partial batches.
	BatchTimeout int
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		Enabled:      false, // Disabled by default
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if metrics is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{
			BatchSize:    c.BatchSize,
			BatchTimeout: c.BatchTimeout,
		})
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
