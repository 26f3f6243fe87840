package metrics

import (
	"context"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Metrics collection disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, record *WriteRecord) error {
	errFactory := errors.New()

	if record == nil {
		return errFactory.New(ErrInvalidMetrics)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(record); err != nil {
			return errFactory.Wrap(ErrMetricsCollection, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}

func (*noopCollector) Record(_ context.Context, _ *WriteRecord) error {
	return nil
}

func (*noopCollector) Close() error {
	return nil
}
