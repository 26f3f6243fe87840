package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db            *sql.DB
	logger        logger.Logger
	cfg           Config
	mu            sync.Mutex
	buffer        []*WriteRecord
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Metrics repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]*WriteRecord, 0, cfg.BatchSize),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	// Periodic flushing of partial batches
	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		go repo.flusher()
	}

	return repo, nil
}

func (r *repository) Record(record *WriteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, record)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Close() error {
	errFactory := errors.New()

	if r.flushTicker != nil {
		close(r.shutdownChan)
		r.flushTicker.Stop()
		<-r.flushDoneChan
	} else {
		r.mu.Lock()
		err := r.flush()
		r.mu.Unlock()
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to flush metrics on close")
		}
	}

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Metrics repository closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Error().Err(err).Msg("Periodic metrics flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Error().Err(err).Msg("Final metrics flush failed")
			}
			r.mu.Unlock()
			return
		}
	}
}

// flush writes the buffer in one transaction and empties it. A batch that
// cannot be written is dropped. Callers hold r.mu.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	err := r.writeBatch()
	if err != nil {
		r.logger.Warn().Err(err).Int("records", len(r.buffer)).Msg("Dropping metrics batch")
	} else {
		r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed metrics to database")
	}
	r.buffer = r.buffer[:0]

	return err
}

func (r *repository) writeBatch() error {
	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertWriteSQL)
	if err != nil {
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, rec := range r.buffer {
		values := []interface{}{
			rec.Timestamp.Unix(),
			int64(rec.MonitorIndex),
			rec.RequestID,
			int64(rec.Value),
			int64(rec.Raw),
			int64(boolToInt(rec.OK)),
			rec.ErrorCode,
			rec.Duration.Milliseconds(),
		}

		if _, err := stmt.Exec(values...); err != nil {
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	return nil
}
