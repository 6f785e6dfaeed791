package service

import (
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/config"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/sequencer"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig takes the solver parameters, lookback, bootstrap year, window
// anchor, worker count and queue size from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		WithParams(cfg.Params())(s)
		WithLookback(cfg.Lookback())(s)
		WithBootstrapYear(cfg.BootstrapYear)(s)
		s.anchor = cfg.Anchor()
		WithWorkerCount(cfg.WorkerCount)(s)
		WithQueueSize(cfg.QueueSize)(s)
	}
}

// WithParams sets the solver parameters used when a call passes none.
func WithParams(p ranking.Params) Option {
	return func(s *Service) {
		if !p.IsZero() {
			s.params = p
		}
	}
}

// WithLookback sets the trailing window used when a call passes none.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithBootstrapYear sets the bootstrap year used when a call passes none.
func WithBootstrapYear(year int) Option {
	return func(s *Service) {
		if year != 0 {
			s.bootstrapYear = year
		}
	}
}

// WithWorkerCount sets the number of precompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the precompute job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAnchor selects which start date ends each sequencer window.
func WithAnchor(a sequencer.Anchor) Option {
	return func(s *Service) {
		s.anchor = a
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
